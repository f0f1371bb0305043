package model

import "strings"

// Language is the closed enum of languages a snippet may be written in.
// The playground execution proxy supports a larger superset (see the
// executor package); this enum only constrains stored snippets.
type Language string

const (
	LangCPP        Language = "cpp"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangTypeScript Language = "typescript"
	LangPHP        Language = "php"
	LangRuby       Language = "ruby"
)

// SupportedLanguages lists every valid snippet language, in display order.
var SupportedLanguages = []Language{
	LangCPP, LangPython, LangJavaScript, LangJava, LangC,
	LangGo, LangRust, LangTypeScript, LangPHP, LangRuby,
}

// ParseLanguage normalizes a user-supplied label ("PYTHON" → "python") and
// reports whether it is a member of the snippet language enum.
func ParseLanguage(s string) (Language, bool) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range SupportedLanguages {
		if lang == l {
			return lang, true
		}
	}
	return "", false
}
