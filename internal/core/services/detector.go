package services

import (
	"strings"

	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/ports"
)

// DetectFormat определяет формат входного текста.
// Если весь текст разбирается парсером как массив разговоров, возвращается
// вариант InputStructured. Любая ошибка разбора означает произвольный текст:
// тогда возвращаются непустые строки в исходном порядке.
func DetectFormat(p ports.Parser, raw string) domain.Input {
	if p != nil {
		if convs, err := p.Parse([]byte(raw)); err == nil {
			return domain.Input{Kind: domain.InputStructured, Conversations: convs}
		}
	}

	return domain.Input{Kind: domain.InputFreeform, Lines: splitLines(raw)}
}

// splitLines делит текст по переводам строк и отбрасывает пустые строки.
func splitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
