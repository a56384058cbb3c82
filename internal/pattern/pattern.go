// Package pattern turns raw user-typed queries into typo-permissive regular
// expressions for the literal grep stage.
package pattern

import "strings"

// Translate converts a fuzzy query into a permissive regex pattern that allows
// single-character substitutions, e.g. "fun" becomes "f(u|.)n".
//
// The first and last characters stay literal; every interior character may
// independently be replaced by any single character. The number of
// substitutions across the whole string is deliberately unbounded, which can
// over-match on long queries; the fuzzy re-rank downstream filters that noise.
// Insertions and deletions are not tolerated.
func Translate(query string) string {
	if len(query) <= 2 {
		// Too short for typo tolerance: a wildcard interior would match
		// nearly everything.
		return Escape(query)
	}

	runes := []rune(query)
	var b strings.Builder
	for i, r := range runes {
		if i == 0 || i == len(runes)-1 {
			b.WriteString(Escape(string(r)))
			continue
		}
		b.WriteString("(")
		b.WriteString(Escape(string(r)))
		b.WriteString("|.)")
	}
	return b.String()
}

// Escape backslash-escapes regex metacharacters in s.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\', '.', '+', '*', '?', '(', ')', '|', '[', ']', '{', '}', '^', '$':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
