package search

import (
	"strings"
	"unicode/utf8"
)

// Tokenize lowercases question, splits it on whitespace and drops tokens of one character or
// fewer. Tokens are otherwise kept as typed, punctuation and particles included.
func Tokenize(question string) []string {
	var tokens []string
	for _, f := range strings.Fields(strings.ToLower(question)) {
		if utf8.RuneCountInString(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// searchText is the lowercase text a record is matched against.
func searchText(label, body string) string {
	return strings.ToLower(label + " " + body)
}

// matchesAny reports whether any token is a substring of text.
func matchesAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
