// Package normalize turns raw marketplace titles into canonical game names
// and decides whether two free-text names refer to the same game.
package normalize

import (
	"strings"
	"unicode"
)

// matchThreshold is the minimum bigram Dice similarity two cleaned names
// must reach to be considered the same game. False positives corrupt the
// catalog with wrong references, so the threshold errs on the strict side.
const matchThreshold = 0.8

// CanonicalName derives the search key for a raw announce title.
//
// Okkazeo titles carry a trailing classification token after the last '-'
// ("Catan (5th Edition) - Extension"); that token is discarded. Any
// parenthesised annotation is then removed: a ')' always closes the nearest
// open '(', nesting is not supported, and text after an unmatched '(' is
// dropped until a ')' or the end of the string. The function is total; a
// title without a delimiter comes back whole, trimmed.
func CanonicalName(title string) string {
	name := title
	if idx := strings.LastIndex(title, "-"); idx >= 0 {
		name = title[:idx]
	}
	return strings.TrimSpace(stripParentheses(name))
}

func stripParentheses(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inside := false
	for _, c := range s {
		switch {
		case c == '(':
			inside = true
		case c == ')':
			inside = false
		case !inside:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// SameGame reports whether a name found on a third-party source refers to
// the same game as the candidate's name. The comparison is case-insensitive,
// ignores punctuation and whitespace layout, and is purely deterministic so
// it can be tested with literal string pairs.
func SameGame(found, candidate string) bool {
	return Similarity(found, candidate) >= matchThreshold
}

// Similarity computes the Sørensen–Dice coefficient over character bigrams
// of the cleaned names, in [0, 1].
func Similarity(a, b string) float64 {
	a, b = cleanName(a), cleanName(b)
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}

	var shared int
	for g := range ba {
		if bb[g] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ba)+len(bb))
}

// cleanName lowercases, drops punctuation and collapses whitespace.
func cleanName(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(fields, " ")
}

func bigrams(s string) map[string]bool {
	runes := []rune(s)
	set := make(map[string]bool, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = true
	}
	return set
}
