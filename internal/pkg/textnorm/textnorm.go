// Package textnorm normalises the Korean and Latin text found in catalogs, recipes and registry records.
// Hangul may arrive decomposed (NFD) from files produced on macOS, so every comparison goes through NFC first.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize returns s in NFC with surrounding space trimmed and inner runs of space collapsed
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Key returns the lookup key used by the catalogs and dictionaries
func Key(s string) string {
	return strings.ToLower(Normalize(s))
}

// Compact removes every whitespace rune
func Compact(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), "")
}

// Tokenize splits s on every rune that is neither a letter nor a digit, in any script.
// Tokens are lower-cased.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(norm.NFC.String(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// RuneLen counts runes, not bytes
func RuneLen(s string) int {
	return len([]rune(s))
}
