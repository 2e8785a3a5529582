// Package report разбирает текстовый отчет, который внешний ассистент
// составляет по запросу services.ManualAnalysisPrompt.
package report

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/ports"
)

// ErrUnreadableReport возвращается, если не удалось прочитать ни архетип, ни число сообщений.
var ErrUnreadableReport = errors.New("could not parse key fields, make sure the format matches the prompt output")

const (
	defaultArchetype   = "The Mystery Chatter"
	defaultActiveHour  = 12
	wordsPerMessage    = 20
	placeholderCount   = 100
	maxTopWords        = 5
	blockLookaheadRune = 500
)

var (
	leadingIntRe   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloatRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)
	// sectionRe находит начало следующей секции вида [HEADER] или маркер конца отчета.
	sectionRe = regexp.MustCompile(`\n(\[[A-Z ]+\]|---END REPORT---)`)
)

// ManualParser реализует интерфейс ReportParser.
type ManualParser struct{}

// NewManualParser создает новый экземпляр ManualParser.
func NewManualParser() ports.ReportParser {
	return &ManualParser{}
}

// Parse извлекает статистику и персону из текста отчета.
// Отсутствующие поля получают значения по умолчанию.
func (p *ManualParser) Parse(text string) (*domain.WrappedReport, error) {
	total := leadingInt(strings.ReplaceAll(value(text, "Total Messages"), ",", ""))
	if total < 0 {
		total = 0
	}
	hoursSpent := leadingFloat(value(text, "Hours Spent"))

	mostActiveHour := defaultActiveHour
	if raw := value(text, "Most Active Hour"); leadingIntRe.MatchString(raw) {
		if h := leadingInt(raw); h >= 0 && h <= 23 {
			mostActiveHour = h
		}
	}

	topWords := []domain.WordCount{}
	for _, w := range strings.Split(value(text, "Top Words"), ",") {
		fields := strings.Fields(strings.Trim(strings.TrimSpace(w), "()"))
		if len(fields) == 0 {
			continue
		}
		topWords = append(topWords, domain.WordCount{Word: fields[0], Count: placeholderCount})
		if len(topWords) == maxTopWords {
			break
		}
	}

	powerSkillBlock := block(text, "[POWER SKILL]")
	unhingedBlock := block(text, "[UNHINGED]")
	mostAskedBlock := block(text, "[MOST ASKED]")
	motivationBlock := block(text, "[MOTIVATION]")

	persona := &domain.Persona{
		Archetype:   or(value(text, "Archetype"), defaultArchetype),
		Description: or(value(text, "Description"), "An enigmatic user of AI."),
		VibeColor:   or(value(text, "Vibe Color"), "#888888"),
		PowerWord:   or(value(text, "Power Word"), "UNKNOWN"),
		Soundtrack:  or(value(text, "Soundtrack"), "Silence"),
		TopThemes:   list(text, "[THEMES]"),
		BiggestWins: list(text, "[WINS]"),

		ThinkingPatterns:  value(text, "Thinking Patterns"),
		MindsetRoadblocks: value(text, "Mindset Roadblocks"),
		UnhingedMoment: domain.Quote{
			Quote:   or(blockValue(unhingedBlock, "Quote"), "N/A"),
			Context: or(blockValue(unhingedBlock, "Context"), "N/A"),
		},
		MostAskedQuestion: domain.AskedQuestion{
			Question: or(blockValue(mostAskedBlock, "Question"), "N/A"),
			Insight:  or(blockValue(mostAskedBlock, "Insight"), "N/A"),
		},
		FinalMotivationalMessage: or(blockValue(motivationBlock, "Message"), "Keep going!"),
		TopMoments:               moments(list(text, "[MOMENTS]")),
		ChattingStyle: domain.Badge{
			Badge:       or(value(text, "Badge"), "Newbie"),
			Description: or(value(text, "Badge Description"), "Just getting started."),
		},
		PowerSkill: domain.Skill{
			Skill:       or(blockValue(powerSkillBlock, "Skill"), "Learning"),
			Description: or(blockValue(powerSkillBlock, "Description"), "You're always learning."),
		},
	}

	if persona.Archetype == defaultArchetype && total == 0 {
		return nil, ErrUnreadableReport
	}

	stats := domain.ChatStats{
		TotalMessages:    total,
		UserMessageCount: total / 2,
		AIMessageCount:   total - total/2,
		WordCount:        total * wordsPerMessage,
		TopWords:         topWords,
		ActiveHours:      map[string]int{strconv.Itoa(mostActiveHour): placeholderCount},
		MostActiveHour:   mostActiveHour,
		HoursSpent:       hoursSpent,
	}

	return &domain.WrappedReport{Stats: stats, Persona: persona}, nil
}

// value возвращает значение первого поля "key:" в тексте без учета регистра.
func value(text, key string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(key) + `:\s*(.*)`)
	return clean(re, text)
}

// blockValue ищет поле "key:" с учетом регистра внутри блока секции.
func blockValue(blockText, key string) string {
	re := regexp.MustCompile(regexp.QuoteMeta(key) + `:\s*(.*)`)
	return clean(re, blockText)
}

func clean(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	// Markdown-выделение вроде "**Archetype:** ..." оставляет звездочки в значении.
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), "*"))
}

// block возвращает фрагмент текста начиная с заголовка секции длиной до 500 символов.
func block(text, header string) string {
	idx := strings.Index(text, header)
	if idx == -1 {
		return ""
	}
	rest := text[idx:]
	if utf8.RuneCountInString(rest) <= blockLookaheadRune {
		return rest
	}
	n := 0
	for i := range rest {
		if n == blockLookaheadRune {
			return rest[:i]
		}
		n++
	}
	return rest
}

// list возвращает пункты "- ..." секции до начала следующей секции.
func list(text, header string) []string {
	items := []string{}
	idx := strings.Index(text, header)
	if idx == -1 {
		return items
	}

	section := text[idx:]
	if loc := sectionRe.FindStringIndex(section); loc != nil {
		section = section[:loc[0]]
	}

	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") || strings.HasPrefix(line, "---") {
			continue
		}
		if item := strings.TrimSpace(strings.TrimPrefix(line, "-")); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func moments(items []string) []domain.Moment {
	out := make([]domain.Moment, 0, len(items))
	for _, item := range items {
		quotePart, reasonPart, _ := strings.Cut(item, "|")
		out = append(out, domain.Moment{
			Quote:     or(strings.TrimSpace(strings.Replace(quotePart, "Quote:", "", 1)), "Msg"),
			Reasoning: or(strings.TrimSpace(strings.Replace(reasonPart, "Reasoning:", "", 1)), "Good vibe"),
		})
	}
	return out
}

func leadingInt(s string) int {
	m := leadingIntRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func leadingFloat(s string) float64 {
	m := leadingFloatRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
