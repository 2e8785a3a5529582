package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-wrapped/internal/domain"
)

func TestDetectFormat(t *testing.T) {
	p := newTestParser()

	t.Run("массив разговоров", func(t *testing.T) {
		in := DetectFormat(p, `[{"title":"t","mapping":{"a":{"message":{"author":{"role":"user"},"content":{"parts":["hi"]}}}}}]`)
		assert.Equal(t, domain.InputStructured, in.Kind)
		require.Len(t, in.Conversations, 1)
		assert.Nil(t, in.Lines)
	})

	t.Run("время вне диапазона не ломает разбор", func(t *testing.T) {
		in := DetectFormat(p, `[{"mapping":{"a":{"message":{"author":{"role":"user"},"content":{"parts":["hi"]},"create_time":1e400}}}}]`)
		assert.Equal(t, domain.InputStructured, in.Kind)
		require.Len(t, in.Conversations, 1)
	})

	tests := []struct {
		name  string
		raw   string
		lines []string
	}{
		{"объект вместо массива", `{"mapping":{}}`, []string{`{"mapping":{}}`}},
		{"битый JSON", "[{\"a\":\n", []string{`[{"a":`}},
		{"JSON с переносами", "[{\"mapping\":\n\n  oops", []string{`[{"mapping":`, "  oops"}},
		{"обычный текст", "User: hi\r\n\n  \nAI: hello", []string{"User: hi", "AI: hello"}},
		{"пустые строки и CRLF", "User: hi\r\n\r\n   \r\nAI: hello\r\n", []string{"User: hi", "AI: hello"}},
		{"пустой ввод", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := DetectFormat(p, tt.raw)
			assert.Equal(t, domain.InputFreeform, in.Kind)
			assert.Equal(t, tt.lines, in.Lines)
		})
	}

	t.Run("без парсера всегда текст", func(t *testing.T) {
		in := DetectFormat(nil, `[]`)
		assert.Equal(t, domain.InputFreeform, in.Kind)
		assert.Equal(t, []string{"[]"}, in.Lines)
	})
}
