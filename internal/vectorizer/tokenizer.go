package vectorizer

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases text and splits it on every non-letter, non-digit
// rune. Fit and Transform share this one function; the model's scores are
// only comparable when both sides tokenize identically.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
