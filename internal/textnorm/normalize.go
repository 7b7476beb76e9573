// Package textnorm provides text normalization and light stemming for the
// query-routing pipeline. All functions are pure and safe for concurrent use.
package textnorm

import (
	"strings"
	"unicode"
)

// Normalize prepares raw user text for classification and extraction.
// It lowercases, strips punctuation (keeping hyphens and apostrophes that sit
// inside words), collapses whitespace runs and trims the result.
// Normalize is total: any input, including binary garbage, yields a valid
// (possibly empty) string.
func Normalize(raw string) string {
	lower := strings.ToLower(raw)

	var sb strings.Builder
	sb.Grow(len(lower))

	runes := []rune(lower)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case r == '-' || r == '\'':
			// Keep only when joining two word characters ("gluten-free", "don't").
			if i > 0 && i < len(runes)-1 && isWordRune(runes[i-1]) && isWordRune(runes[i+1]) {
				sb.WriteRune(r)
			} else {
				sb.WriteRune(' ')
			}
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		default:
			sb.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokens splits normalized text on whitespace.
// Call with output of Normalize; it performs no cleaning of its own.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}
