// Package codeblock pulls fenced code blocks out of free-form model replies.
package codeblock

import (
	"regexp"
	"strings"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
)

// Extractor captures the body of a fenced block from a reply.
type Extractor interface {
	Extract(reply string) (string, bool)
}

type fenceExtractor struct {
	re *regexp.Regexp
}

func newFenceExtractor(tag string) fenceExtractor {
	return fenceExtractor{re: regexp.MustCompile("```" + regexp.QuoteMeta(tag) + "([\\s\\S]*?)```")}
}

// Extract returns the trimmed body of the first matching block.
func (f fenceExtractor) Extract(reply string) (string, bool) {
	m := f.re.FindStringSubmatch(reply)
	if m == nil {
		return "", false
	}
	code := strings.TrimSpace(m[1])
	return code, code != ""
}

var extractors = map[entity.Language]Extractor{
	entity.LanguageRust:       newFenceExtractor(entity.LanguageRust.FenceTag()),
	entity.LanguageTypeScript: newFenceExtractor(entity.LanguageTypeScript.FenceTag()),
}

// For returns the extraction strategy of a language. ok is false for languages
// outside entity.SupportedLanguages.
func For(lang entity.Language) (Extractor, bool) {
	e, ok := extractors[lang]
	return e, ok
}

// Extract is a shortcut for For(lang) followed by Extract(reply).
func Extract(lang entity.Language, reply string) (string, bool) {
	e, ok := For(lang)
	if !ok {
		return "", false
	}
	return e.Extract(reply)
}
