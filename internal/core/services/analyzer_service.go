package services

import (
	"time"

	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/ports"
)

// AnalyzerOption — функциональная опция для настройки Analyzer.
type AnalyzerOption func(*Analyzer)

// WithRandom задает источник случайности для выборки. Нужен для воспроизводимых тестов.
// Источник оборачивается мьютексом, поэтому подойдет и *rand.Rand.
func WithRandom(r RandomSource) AnalyzerOption {
	return func(a *Analyzer) {
		if r != nil {
			a.random = &lockedRandom{src: r}
		}
	}
}

// WithLocation задает часовой пояс для гистограммы часов активности.
func WithLocation(loc *time.Location) AnalyzerOption {
	return func(a *Analyzer) {
		if loc != nil {
			a.location = loc
		}
	}
}

// WithRoleRules заменяет шаблоны определения ролей в произвольном тексте.
func WithRoleRules(rules RoleRules) AnalyzerOption {
	return func(a *Analyzer) {
		a.rules = rules
	}
}

// WithStopWords заменяет набор стоп-слов для рейтинга ключевых слов.
func WithStopWords(words []string) AnalyzerOption {
	return func(a *Analyzer) {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		a.stopWords = set
	}
}

// Analyzer разбирает экспорт или вставленный текст и считает статистику.
// Не выполняет ввода-вывода и не хранит изменяемого состояния, поэтому
// безопасен для одновременного использования.
type Analyzer struct {
	parser    ports.Parser
	rules     RoleRules
	stopWords map[string]struct{}
	location  *time.Location
	random    RandomSource
}

// NewAnalyzer создает Analyzer. Парсер используется для распознавания
// структурированного экспорта; при nil любой ввод считается произвольным текстом.
func NewAnalyzer(p ports.Parser, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		parser:    p,
		rules:     DefaultRoleRules(),
		stopWords: DefaultStopWords(),
		location:  time.Local,
		random:    globalRandom{},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Normalize возвращает упорядоченный список сообщений и признак структурированного ввода.
func (a *Analyzer) Normalize(raw string) ([]domain.Message, bool) {
	input := DetectFormat(a.parser, raw)
	switch input.Kind {
	case domain.InputStructured:
		return ExtractStructured(input.Conversations), true
	default:
		return SegmentFreeform(input.Lines, a.rules), false
	}
}

// Analyze считает статистику и строит выборку текста. Никогда не возвращает ошибку:
// некорректный JSON разбирается как произвольный текст, пустой ввод дает нулевую статистику.
func (a *Analyzer) Analyze(raw string) domain.AnalysisResult {
	messages, structured := a.Normalize(raw)

	stats := Aggregate(messages, a.stopWords, a.location)
	stats.HoursSpent = HoursSpent(EstimateSessionSeconds(messages, structured))

	return domain.AnalysisResult{
		Stats:      stats,
		SampleText: Sample(messages, a.random),
	}
}

var _ ports.ChatAnalyzer = (*Analyzer)(nil)
