// Package validate compares user-submitted answers against expected
// answers under a named strategy. Everything here is a pure function over
// strings and catalog data; handlers own all state.
package validate

import (
	"regexp"
	"strings"
)

var (
	nonWord    = regexp.MustCompile(`[^\w\s]`)
	listSplit  = regexp.MustCompile(`[,\n]`)
	bareLetter = regexp.MustCompile(`^[a-z]\.?$`)
	letterTok  = regexp.MustCompile(`\b([a-zA-Z])\.?\b`)
	anyLetter  = regexp.MustCompile(`[a-z]`)
)

// Normalize folds an answer for comparison: lowercase, trimmed, with
// everything but word characters and spaces removed. It is idempotent,
// so "Scape Smarts!" and "scape smarts" normalize to the same thing.
func Normalize(s string) string {
	return nonWord.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// ParseListInput splits comma- or newline-separated user input into
// trimmed, non-empty items.
func ParseListInput(s string) []string {
	var items []string
	for _, part := range listSplit.Split(s, -1) {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// ExtractLetters pulls single-letter choice tokens ("a", "B.") out of
// free-form input, deduplicated in order of first appearance. Users
// write letter answers in every imaginable format; this recovers the
// intent instead of enforcing one.
func ExtractLetters(s string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range letterTok.FindAllStringSubmatch(strings.ToLower(s), -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

func isBareLetter(s string) bool {
	return bareLetter.MatchString(strings.ToLower(strings.TrimSpace(s)))
}

// letterSequence is every letter in order, for ordered_list comparisons
// like "D, C, B, A".
func letterSequence(s string) []string {
	return anyLetter.FindAllString(strings.ToLower(s), -1)
}
