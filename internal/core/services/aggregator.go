package services

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"chat-wrapped/internal/domain"
)

const (
	topWordsLimit     = 10
	minKeywordLength  = 4
	defaultActiveHour = 12
)

// nonWordRe совпадает с любым символом, не являющимся буквой, цифрой, '_' или пробелом.
// \s в RE2 покрывает только ASCII, поэтому пробелы Unicode (U+00A0, U+3000) добавлены через \p{Z}.
var nonWordRe = regexp.MustCompile(`[^\w\s\p{Z}]`)

// DefaultStopWords возвращает набор служебных слов, исключаемых из рейтинга ключевых слов.
func DefaultStopWords() map[string]struct{} {
	words := []string{
		"the", "and", "this", "that", "with", "from", "have", "what", "when", "where",
		"your", "chatgpt", "openai", "model", "language", "please", "help", "code", "make",
		"sure", "like", "just", "know", "about", "would", "could", "should", "there", "some",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Tokenize приводит текст к нижнему регистру, удаляет знаки препинания
// и делит результат по пробельным символам.
func Tokenize(content string) []string {
	return strings.Fields(nonWordRe.ReplaceAllString(strings.ToLower(content), ""))
}

// Aggregate считает статистику по списку сообщений. Поле HoursSpent не заполняется.
// Часы активности вычисляются в зоне loc только по сообщениям с временем создания.
func Aggregate(messages []domain.Message, stopWords map[string]struct{}, loc *time.Location) domain.ChatStats {
	if loc == nil {
		loc = time.Local
	}

	stats := domain.ChatStats{
		TotalMessages:  len(messages),
		TopWords:       []domain.WordCount{},
		ActiveHours:    map[string]int{},
		MostActiveHour: defaultActiveHour,
	}

	counts := make(map[string]int)
	var order []string
	var hours [24]int
	hasHours := false

	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleUser:
			stats.UserMessageCount++
		case domain.RoleAssistant:
			stats.AIMessageCount++
		}

		words := Tokenize(msg.Content)
		stats.WordCount += len(words)
		for _, w := range words {
			if len(w) < minKeywordLength {
				continue
			}
			if _, stop := stopWords[w]; stop {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}

		if msg.HasTimestamp() {
			hour := time.UnixMilli(int64(*msg.Timestamp * 1000)).In(loc).Hour()
			hours[hour]++
			hasHours = true
		}
	}

	ranked := make([]domain.WordCount, 0, len(order))
	for _, w := range order {
		ranked = append(ranked, domain.WordCount{Word: w, Count: counts[w]})
	}
	slices.SortStableFunc(ranked, func(a, b domain.WordCount) int {
		return b.Count - a.Count
	})
	if len(ranked) > topWordsLimit {
		ranked = ranked[:topWordsLimit]
	}
	stats.TopWords = ranked

	if hasHours {
		best := -1
		for h, c := range hours {
			if c == 0 {
				continue
			}
			stats.ActiveHours[strconv.Itoa(h)] = c
			if best < 0 || c > hours[best] {
				best = h
			}
		}
		stats.MostActiveHour = best
	}

	return stats
}
