package services

import (
	"regexp"
	"strings"

	"chat-wrapped/internal/domain"
)

// LineKind описывает, как строка произвольного текста связана с ролью автора.
type LineKind int

const (
	// LineContent — обычная строка без признаков роли.
	LineContent LineKind = iota
	// LineHeader — отдельный заголовок роли ("User:", "ChatGPT"), не несет содержимого.
	LineHeader
	// LinePrefixed — строка, начинающаяся с префикса роли ("AI: текст").
	LinePrefixed
)

// RoleRules хранит таблицы шаблонов для определения роли автора в произвольном тексте.
// Таблицы можно заменить целиком через WithRoleRules, не затрагивая логику разбора.
type RoleRules struct {
	UserHeader      *regexp.Regexp
	AssistantHeader *regexp.Regexp
	UserPrefix      *regexp.Regexp
	AssistantPrefix *regexp.Regexp
}

// DefaultRoleRules возвращает стандартные шаблоны заголовков и префиксов.
func DefaultRoleRules() RoleRules {
	return RoleRules{
		UserHeader:      regexp.MustCompile(`(?i)^(user|you|me)(\s*[:\-])?$`),
		AssistantHeader: regexp.MustCompile(`(?i)^(chatgpt|ai|assistant|model)(\s*[:\-])?$`),
		UserPrefix:      regexp.MustCompile(`(?i)^(user|you|me):`),
		AssistantPrefix: regexp.MustCompile(`(?i)^(chatgpt|ai|assistant|model):`),
	}
}

// IsHeader сообщает, является ли обрезанная строка отдельным заголовком любой роли.
func (r RoleRules) IsHeader(trimmed string) bool {
	return r.UserHeader.MatchString(trimmed) || r.AssistantHeader.MatchString(trimmed)
}

// Classify определяет роль, на которую указывает строка, и вид строки.
// Заголовки учитываются только в режиме заголовков (headerMode),
// префиксы проверяются всегда. Для LineContent роль пустая.
func (r RoleRules) Classify(trimmed string, headerMode bool) (domain.Role, LineKind) {
	if headerMode {
		switch {
		case r.UserHeader.MatchString(trimmed):
			return domain.RoleUser, LineHeader
		case r.AssistantHeader.MatchString(trimmed):
			return domain.RoleAssistant, LineHeader
		}
	}

	switch {
	case r.UserPrefix.MatchString(trimmed):
		return domain.RoleUser, LinePrefixed
	case r.AssistantPrefix.MatchString(trimmed):
		return domain.RoleAssistant, LinePrefixed
	}

	return "", LineContent
}

// StripPrefix удаляет префиксы ролей в начале строки и обрезает пробелы.
func (r RoleRules) StripPrefix(trimmed string) string {
	s := r.UserPrefix.ReplaceAllString(trimmed, "")
	s = r.AssistantPrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
