package services

import (
	"strings"

	"chat-wrapped/internal/domain"
)

// SegmentFreeform восстанавливает реплики из вставленного текста.
//
// Если хотя бы одна строка является отдельным заголовком роли, документ считается
// размеченным заголовками: такие строки переключают текущую роль и отбрасываются.
// Префиксы ролей в начале строки переключают роль всегда и удаляются из текста.
// Начальная роль — user. Если в тексте нет ни одного заголовка или префикса,
// роль определить нельзя и все сообщения получают роль unknown. Если не удалось
// выделить ни одного сообщения, каждая строка становится сообщением с ролью unknown.
func SegmentFreeform(lines []string, rules RoleRules) []domain.Message {
	headerMode := false
	for _, line := range lines {
		if rules.IsHeader(strings.TrimSpace(line)) {
			headerMode = true
			break
		}
	}

	var messages []domain.Message
	current := domain.RoleUser
	sawRole := headerMode

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		role, kind := rules.Classify(trimmed, headerMode)
		if kind == LineHeader {
			current = role
			continue
		}
		if kind == LinePrefixed {
			current = role
			sawRole = true
		}

		content := rules.StripPrefix(trimmed)
		if content == "" {
			continue
		}
		messages = append(messages, domain.Message{Role: current, Content: content})
	}

	if !sawRole {
		for i := range messages {
			messages[i].Role = domain.RoleUnknown
		}
	}

	if len(messages) == 0 && len(lines) > 0 {
		messages = make([]domain.Message, 0, len(lines))
		for _, line := range lines {
			messages = append(messages, domain.Message{Role: domain.RoleUnknown, Content: line})
		}
	}

	return messages
}
