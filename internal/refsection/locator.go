// Package refsection locates the reference list within extracted document
// text and splits oversized sections into bounded, overlapping chunks.
package refsection

import (
	"regexp"
	"strings"
	"unicode"
)

// Reference-list headings recognized as the start of the section.
var sectionHeadings = map[string]bool{
	"references":   true,
	"bibliography": true,
	"works cited":  true,
}

// Headings that end the reference list when they appear on their own line.
var stopHeadings = map[string]bool{
	"appendix":         true,
	"acknowledgments":  true,
	"acknowledgements": true,
	"supplementary":    true,
	"supplemental":     true,
	"algorithm":        true,
	"proof":            true,
	"proofs":           true,
}

// captionPattern matches numbered float captions like "Figure 3" or
// "Table 12:" at the start of a line.
var captionPattern = regexp.MustCompile(`(?i)^(algorithm|figure|table)\s+\d`)

// yearPattern matches a 4-digit year anywhere in a line.
var yearPattern = regexp.MustCompile(`\d{4}`)

// maxUppercaseHeadingLen bounds the length of an all-caps line treated as a
// new section heading.
const maxUppercaseHeadingLen = 40

// Locate extracts the reference-list substring from raw document text.
//
// It scans for a standalone heading ("References", "Bibliography", "Works
// Cited") and collects subsequent lines until a stop heading, a numbered
// float caption, or a short all-caps line without a year marks the start of
// unrelated material. If no reference heading is found the full input is
// returned unchanged; the caller detects extraction failure downstream.
func Locate(text string) string {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if isSectionHeading(line) {
			start = i + 1
		}
	}
	if start < 0 || start >= len(lines) {
		return text
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if isStopLine(lines[i]) {
			end = i
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// isSectionHeading reports whether a line is a standalone reference-list
// heading. Leading numbering ("7.") and markdown hashes are tolerated.
func isSectionHeading(line string) bool {
	return sectionHeadings[canonicalHeading(line)]
}

// isStopLine reports whether a line ends reference collection.
func isStopLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if stopHeadings[canonicalHeading(trimmed)] {
		return true
	}
	if captionPattern.MatchString(trimmed) {
		return true
	}

	// A short shouting line with no year looks like a new section heading,
	// not a citation entry.
	if len(trimmed) <= maxUppercaseHeadingLen && isAllUppercase(trimmed) && !yearPattern.MatchString(trimmed) {
		return true
	}

	return false
}

// canonicalHeading lowercases a line and strips markdown hashes, list
// numbering, and trailing punctuation so heading variants compare equal.
func canonicalHeading(line string) string {
	s := strings.TrimSpace(strings.ToLower(line))
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)

	// Strip leading section numbering like "7." or "7"
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i > 0 && i < len(s) && s[i] == ' ' {
		s = s[i+1:]
	}

	return strings.TrimRight(strings.TrimSpace(s), ".:")
}

// isAllUppercase reports whether every letter in s is uppercase and s
// contains at least one letter.
func isAllUppercase(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
