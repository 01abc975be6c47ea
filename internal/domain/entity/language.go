package entity

import "strings"

type Language string

const (
	LanguageRust       Language = "rust"
	LanguageTypeScript Language = "typescript"
)

// SupportedLanguages lists every language the generator can extract code for.
var SupportedLanguages = []Language{LanguageRust, LanguageTypeScript}

// ParseLanguage maps a user supplied language name onto a supported Language.
// Matching is case-insensitive; surrounding whitespace is not tolerated.
func ParseLanguage(s string) (Language, bool) {
	switch Language(strings.ToLower(s)) {
	case LanguageRust:
		return LanguageRust, true
	case LanguageTypeScript:
		return LanguageTypeScript, true
	default:
		return "", false
	}
}

// FenceTag is the tag expected right after the opening ``` of a code block.
func (l Language) FenceTag() string {
	return string(l)
}
