// Package textmatch provides string normalization and approximate matching
// for comparing citation titles and author names.
package textmatch

import (
	"strings"
	"unicode"
)

// Normalize lowercases a string, strips punctuation, and collapses
// whitespace runs to single spaces. Normalize is idempotent.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true // Leading whitespace is dropped
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			// Punctuation and symbols are dropped entirely
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// NormalizeAuthors normalizes each author name, dropping entries that
// normalize to the empty string.
func NormalizeAuthors(authors []string) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := Normalize(a); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// AuthorOverlap returns the fraction of citation authors that also appear in
// the found author list, after normalization. Returns 0 when either list is
// empty.
func AuthorOverlap(citationAuthors, foundAuthors []string) float64 {
	cited := NormalizeAuthors(citationAuthors)
	found := NormalizeAuthors(foundAuthors)
	if len(cited) == 0 || len(found) == 0 {
		return 0
	}

	foundSet := make(map[string]bool, len(found))
	for _, a := range found {
		foundSet[a] = true
	}

	matched := 0
	for _, a := range cited {
		if foundSet[a] {
			matched++
		}
	}

	return float64(matched) / float64(len(cited))
}
