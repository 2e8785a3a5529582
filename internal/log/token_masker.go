package log

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
)

// maskRule описывает один вид секрета и его замену.
type maskRule struct {
	re          *regexp.Regexp
	replacement string
}

// secretRules применяются по порядку к каждому сообщению и строковому атрибуту.
var secretRules = []maskRule{
	// токен бота в URL Telegram: botID:token
	{regexp.MustCompile(`(\bbot\d+:[A-Za-z0-9_-]{35,})`), "bot***:***masked-token***"},
	// ключ Google API
	{regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`), "AIza***masked-key***"},
	// ключ в query-параметре URL
	{regexp.MustCompile(`([?&]key=)[^&\s"']+`), "${1}***"},
	// заголовок с ключом, попавший в дамп запроса
	{regexp.MustCompile(`(?i)(x-goog-api-key:\s*)\S+`), "${1}***"},
}

func maskTokens(text string) string {
	for _, rule := range secretRules {
		text = rule.re.ReplaceAllString(text, rule.replacement)
	}
	return text
}

// TokenMaskerHandler оборачивает slog.Handler и вырезает из записей токены бота и ключи API.
type TokenMaskerHandler struct {
	handler slog.Handler
}

// NewTokenMaskerHandler создает новый обработчик с маскировкой токенов
func NewTokenMaskerHandler(handler slog.Handler) *TokenMaskerHandler {
	return &TokenMaskerHandler{handler: handler}
}

// NewMaskedLogger создает новый экземпляр slog.Logger с маскировкой токенов
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewTokenMaskerHandler(handler))
}

// Enabled реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler.
// Запись собирается заново: slog может переиспользовать исходную после возврата.
func (h *TokenMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	r := slog.NewRecord(record.Time, record.Level, maskTokens(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TokenMaskerHandler{handler: h.handler.WithAttrs(maskAttrs(attrs))}
}

// WithGroup реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) WithGroup(name string) slog.Handler {
	return &TokenMaskerHandler{handler: h.handler.WithGroup(name)}
}

func maskAttrs(attrs []slog.Attr) []slog.Attr {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = maskAttr(a)
	}
	return masked
}

func maskAttr(a slog.Attr) slog.Attr {
	return slog.Attr{Key: a.Key, Value: maskValue(a.Value)}
}

// maskValue рекурсивно маскирует значение атрибута.
// Ошибки и fmt.Stringer превращаются в строки, LogValuer раскрывается.
func maskValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskTokens(value.String()))
	case slog.KindLogValuer:
		return maskValue(value.Resolve())
	case slog.KindGroup:
		return slog.GroupValue(maskAttrs(value.Group())...)
	case slog.KindAny:
		switch v := value.Any().(type) {
		case error:
			return slog.StringValue(maskTokens(v.Error()))
		case fmt.Stringer:
			return slog.StringValue(maskTokens(v.String()))
		}
	}
	return value
}
