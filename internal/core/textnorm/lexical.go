package textnorm

import (
	"strings"
	"unicode/utf8"
)

// CountOccurrences counts non-overlapping whole-word matches of token in
// text after normalizing both. The token is matched literally, so
// punctuation in it carries no pattern meaning.
func CountOccurrences(text, token string) int {
	return countNormalized(Normalize(text), Normalize(strings.TrimSpace(token)))
}

// CountAll sums whole-word counts of every token in an already normalized
// text. Tokens are expected to come from Tokenize.
func CountAll(normalizedText string, tokens map[string]struct{}) int {
	total := 0
	for token := range tokens {
		total += countNormalized(normalizedText, token)
	}
	return total
}

// ContainsWord reports whether normalizedText has at least one whole-word
// match of the normalized needle.
func ContainsWord(normalizedText, needle string) bool {
	return indexWord(normalizedText, needle, 0) >= 0
}

// HasPhraseMatch reports whether the normalized phrase is a contiguous
// substring of the normalized text. Inner whitespace runs are collapsed on
// both sides.
func HasPhraseMatch(text, phrase string) bool {
	p := Canonical(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(Canonical(text), p)
}

// Canonical is Normalize with whitespace runs collapsed to one space. Page
// texts are stored in this form for phrase and word matching.
func Canonical(text string) string {
	return strings.Join(strings.Fields(Normalize(text)), " ")
}

// PhraseOf turns a question into the phrase used for exact-phrase
// detection: canonical form without leading or trailing punctuation.
func PhraseOf(question string) string {
	return strings.TrimFunc(Canonical(question), func(r rune) bool { return !isWordRune(r) })
}

func countNormalized(text, token string) int {
	if text == "" || token == "" {
		return 0
	}
	count := 0
	pos := 0
	for {
		idx := indexWord(text, token, pos)
		if idx < 0 {
			return count
		}
		count++
		pos = idx + len(token)
	}
}

// indexWord returns the byte offset of the first whole-word occurrence of
// needle in text at or after from, or -1.
func indexWord(text, needle string, from int) int {
	if needle == "" {
		return -1
	}
	for from <= len(text)-len(needle) {
		rel := strings.Index(text[from:], needle)
		if rel < 0 {
			return -1
		}
		start := from + rel
		end := start + len(needle)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return -1
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])
	return !isWordRune(r)
}

func boundaryAfter(text string, idx int) bool {
	if idx >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	return !isWordRune(r)
}
