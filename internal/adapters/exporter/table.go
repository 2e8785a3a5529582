package exporter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"chat-wrapped/internal/domain"
)

// Layout определяет ширину колонок моноширинной сводки.
type Layout struct {
	Word  int `yaml:"word"`
	Count int `yaml:"count"`
	Text  int `yaml:"text"`
}

// Значения ширины колонок по умолчанию.
const (
	DefaultWordColumnWidth  = 18
	DefaultCountColumnWidth = 7
	DefaultTextWidth        = 48
	maxBarWidth             = 20
)

// DefaultLayout возвращает раскладку по умолчанию.
func DefaultLayout() Layout {
	return Layout{
		Word:  DefaultWordColumnWidth,
		Count: DefaultCountColumnWidth,
		Text:  DefaultTextWidth,
	}
}

// RenderSummary формирует моноширинную текстовую сводку отчета:
// общие показатели, таблицу ключевых слов, гистограмму активности по часам и персону.
func RenderSummary(report *domain.WrappedReport, layout Layout) string {
	var sb strings.Builder
	stats := report.Stats

	sb.WriteString("=== Chat Wrapped ===\n")
	sb.WriteString(fmt.Sprintf("Messages    : %d (you %d / AI %d)\n", stats.TotalMessages, stats.UserMessageCount, stats.AIMessageCount))
	sb.WriteString(fmt.Sprintf("Words       : %d\n", stats.WordCount))
	sb.WriteString(fmt.Sprintf("Hours spent : %.1f\n", stats.HoursSpent))
	sb.WriteString(fmt.Sprintf("Most active : %d:00\n", stats.MostActiveHour))

	sb.WriteString("\nTop words\n")
	writeWordTable(&sb, stats.TopWords, layout)

	sb.WriteString("\nActive hours\n")
	writeHourHistogram(&sb, stats.ActiveHours)

	if p := report.Persona; p != nil {
		sb.WriteString("\nPersona\n")
		writeField(&sb, "Archetype", p.Archetype, layout.Text)
		writeField(&sb, "About", p.Description, layout.Text)
		writeField(&sb, "Power word", p.PowerWord, layout.Text)
		writeField(&sb, "Soundtrack", p.Soundtrack, layout.Text)
		writeField(&sb, "Badge", p.ChattingStyle.Badge, layout.Text)
		writeField(&sb, "Power skill", p.PowerSkill.Skill, layout.Text)
		if len(p.TopThemes) > 0 {
			writeField(&sb, "Themes", strings.Join(p.TopThemes, ", "), layout.Text)
		}
	}

	return sb.String()
}

func writeWordTable(sb *strings.Builder, words []domain.WordCount, layout Layout) {
	if len(words) == 0 {
		sb.WriteString("(no keywords)\n")
		return
	}

	sb.WriteString(fmt.Sprintf("| %s%s | %s%s |\n",
		"Word", generatePadding("Word", layout.Word),
		"Count", generatePadding("Count", layout.Count),
	))
	sb.WriteString(fmt.Sprintf("|%s|%s|\n",
		strings.Repeat("-", layout.Word+2),
		strings.Repeat("-", layout.Count+2),
	))

	for _, w := range words {
		count := strconv.Itoa(w.Count)
		for i, part := range wrapString(w.Word, layout.Word) {
			countPart := ""
			if i == 0 {
				countPart = count
			}
			sb.WriteString(fmt.Sprintf("| %s%s | %s%s |\n",
				part, generatePadding(part, layout.Word),
				countPart, generatePadding(countPart, layout.Count),
			))
		}
	}
}

func writeHourHistogram(sb *strings.Builder, hours map[string]int) {
	if len(hours) == 0 {
		sb.WriteString("(no timestamps)\n")
		return
	}

	type bucket struct {
		hour  int
		count int
	}
	buckets := make([]bucket, 0, len(hours))
	peak := 0
	for h, c := range hours {
		hour, err := strconv.Atoi(h)
		if err != nil {
			continue
		}
		buckets = append(buckets, bucket{hour: hour, count: c})
		if c > peak {
			peak = c
		}
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].hour < buckets[j].hour })

	for _, b := range buckets {
		width := 1
		if peak > 0 {
			width = b.count * maxBarWidth / peak
			if width == 0 {
				width = 1
			}
		}
		sb.WriteString(fmt.Sprintf("%02d:00 %s %d\n", b.hour, strings.Repeat("#", width), b.count))
	}
}

func writeField(sb *strings.Builder, label, value string, width int) {
	const labelWidth = 12
	prefix := label + generatePadding(label, labelWidth) + ": "
	lines := wrapString(strings.ReplaceAll(value, "\n", " "), width)
	for i, line := range lines {
		if i == 0 {
			sb.WriteString(prefix + line + "\n")
			continue
		}
		sb.WriteString(strings.Repeat(" ", labelWidth+2) + line + "\n")
	}
}

// generatePadding вычисляет отступ для строки с учетом поправки на CJK-символы.
func generatePadding(s string, colWidth int) string {
	paddingNeeded := colWidth - runewidth.StringWidth(s)

	// Некоторые клиенты рендерят CJK-символы шире, чем считает runewidth.
	hasCJK := false
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hangul, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			hasCJK = true
			break
		}
	}

	if hasCJK && paddingNeeded >= 0 {
		paddingNeeded++
	}

	if paddingNeeded > 0 {
		return strings.Repeat(" ", paddingNeeded)
	}
	return ""
}

// wrapString разбивает строку на части заданной ширины, предпочитая границы слов.
// Слово длиннее ширины разрывается посередине.
func wrapString(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var currentLine strings.Builder
	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)

		if wordWidth > width {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}
			lines = append(lines, splitByWidth(word, width)...)
			continue
		}

		lineLen := runewidth.StringWidth(currentLine.String())
		if lineLen > 0 && lineLen+1+wordWidth > width {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
		}

		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return lines
}

func splitByWidth(word string, width int) []string {
	var parts []string
	runes := []rune(word)
	for len(runes) > 0 {
		i := 0
		currentWidth := 0
		for i < len(runes) {
			rw := runewidth.RuneWidth(runes[i])
			if currentWidth+rw > width {
				break
			}
			currentWidth += rw
			i++
		}
		if i == 0 {
			i = 1
		}
		parts = append(parts, string(runes[:i]))
		runes = runes[i:]
	}
	return parts
}
