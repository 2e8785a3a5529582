package services

import (
	"strings"

	"chat-wrapped/internal/domain"
)

// ExtractStructured превращает разговоры структурированного экспорта в плоский список сообщений.
// Узлы обходятся в порядке их следования в mapping, разговоры — в порядке массива.
// Узлы без сообщения или с пустым текстом пропускаются. Роль переносится как есть.
func ExtractStructured(convs []domain.ExportConversation) []domain.Message {
	var messages []domain.Message
	for _, conv := range convs {
		for _, node := range conv.Nodes {
			msg := node.Message
			if msg == nil || len(msg.Parts) == 0 {
				continue
			}

			content := strings.Join(msg.Parts, " ")
			if content == "" {
				continue
			}

			messages = append(messages, domain.Message{
				Role:      domain.Role(msg.AuthorRole),
				Content:   content,
				Timestamp: msg.CreateTime,
			})
		}
	}
	return messages
}
