package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chat-wrapped/internal/domain"
)

func TestSegmentFreeform(t *testing.T) {
	rules := DefaultRoleRules()

	testCases := []struct {
		name  string
		lines []string
		want  []domain.Message
	}{
		{
			name:  "отдельные заголовки",
			lines: []string{"User:", "Hello there", "AI:", "Hi! How can I help?"},
			want: []domain.Message{
				{Role: domain.RoleUser, Content: "Hello there"},
				{Role: domain.RoleAssistant, Content: "Hi! How can I help?"},
			},
		},
		{
			name:  "встроенные префиксы",
			lines: []string{"User: What is 2+2?", "AI: It's 4."},
			want: []domain.Message{
				{Role: domain.RoleUser, Content: "What is 2+2?"},
				{Role: domain.RoleAssistant, Content: "It's 4."},
			},
		},
		{
			name:  "многострочные реплики под заголовками",
			lines: []string{"You", "first line", "second line", "ChatGPT -", "answer"},
			want: []domain.Message{
				{Role: domain.RoleUser, Content: "first line"},
				{Role: domain.RoleUser, Content: "second line"},
				{Role: domain.RoleAssistant, Content: "answer"},
			},
		},
		{
			name:  "префикс сохраняет роль для следующих строк",
			lines: []string{"AI: part one", "part two", "me: question"},
			want: []domain.Message{
				{Role: domain.RoleAssistant, Content: "part one"},
				{Role: domain.RoleAssistant, Content: "part two"},
				{Role: domain.RoleUser, Content: "question"},
			},
		},
		{
			name:  "без разметки все сообщения неизвестны",
			lines: []string{"first", "second", "third"},
			want: []domain.Message{
				{Role: domain.RoleUnknown, Content: "first"},
				{Role: domain.RoleUnknown, Content: "second"},
				{Role: domain.RoleUnknown, Content: "third"},
			},
		},
		{
			name:  "только заголовки и пустые префиксы",
			lines: []string{"User:", "AI:", "assistant:"},
			want: []domain.Message{
				{Role: domain.RoleUnknown, Content: "User:"},
				{Role: domain.RoleUnknown, Content: "AI:"},
				{Role: domain.RoleUnknown, Content: "assistant:"},
			},
		},
		{
			name:  "пустой ввод",
			lines: nil,
			want:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SegmentFreeform(tc.lines, rules))
		})
	}
}
