// Package textnorm holds the text normalization and lexical matching
// primitives shared by the outline index and the ranker.
package textnorm

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const DefaultMinTokenLen = 3

// Normalize lowercases text and strips combining diacritics.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// transform.Chain is stateful, so a fresh chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Words splits already normalized text into word tokens, in order.
func Words(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool { return !isWordRune(r) })
}

// Tokenize normalizes text and returns the set of tokens with at least
// minLen runes. minLen <= 0 means DefaultMinTokenLen.
func Tokenize(text string, minLen int) map[string]struct{} {
	if minLen <= 0 {
		minLen = DefaultMinTokenLen
	}
	words := Words(Normalize(text))
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len([]rune(w)) < minLen {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// SortedTokens returns a token set as an ascending slice.
func SortedTokens(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for token := range set {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}
