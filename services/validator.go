package services

import (
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
)

// Validator decides whether a submitted answer satisfies an item's rule.
type Validator interface {
	Validate(submitted string, rule []string) bool
}

// KeywordValidator passes a submission when every required keyword appears in
// it, ignoring case, accents and runs of whitespace.
type KeywordValidator struct{}

func NewKeywordValidator() *KeywordValidator { return &KeywordValidator{} }

func normalizeAnswer(s string) string {
	// cases.Caser is stateful, so one per call.
	folded := cases.Fold().String(unidecode.Unidecode(s))
	return strings.Join(strings.Fields(folded), " ")
}

func (KeywordValidator) Validate(submitted string, rule []string) bool {
	text := normalizeAnswer(submitted)
	if text == "" {
		return false
	}
	for _, kw := range rule {
		needle := normalizeAnswer(kw)
		if needle == "" {
			continue
		}
		if !strings.Contains(text, needle) {
			return false
		}
	}
	return true
}
