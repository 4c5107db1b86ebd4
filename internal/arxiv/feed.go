package arxiv

import "strings"

// Entry is one paper from the archive's Atom feed.
type Entry struct {
	ID      string
	Title   string
	Authors []string
}

// ParseFeed extracts entries from an Atom feed by targeted field scanning.
// The feed is a flat sequence of self-contained <entry> blocks, so pulling
// out <title>, <name>, and <id> fields directly avoids carrying a full XML
// document model for three strings per entry.
func ParseFeed(feed string) []Entry {
	var entries []Entry

	rest := feed
	for {
		block, remaining, ok := cutBlock(rest, "<entry>", "</entry>")
		if !ok {
			break
		}
		rest = remaining

		entry := Entry{
			ID:    textBetween(block, "<id>", "</id>"),
			Title: cleanField(textBetween(block, "<title>", "</title>")),
		}

		authors := block
		for {
			name, remainder, found := cutBlock(authors, "<name>", "</name>")
			if !found {
				break
			}
			if n := cleanField(name); n != "" {
				entry.Authors = append(entry.Authors, n)
			}
			authors = remainder
		}

		if entry.Title != "" {
			entries = append(entries, entry)
		}
	}

	return entries
}

// cutBlock returns the text between the first open/close tag pair and the
// remainder of s after the close tag.
func cutBlock(s, open, close string) (block, rest string, ok bool) {
	start := strings.Index(s, open)
	if start < 0 {
		return "", "", false
	}
	s = s[start+len(open):]
	end := strings.Index(s, close)
	if end < 0 {
		return "", "", false
	}
	return s[:end], s[end+len(close):], true
}

// textBetween returns the text between the first open/close tag pair, or ""
// if the pair is absent.
func textBetween(s, open, close string) string {
	block, _, ok := cutBlock(s, open, close)
	if !ok {
		return ""
	}
	return strings.TrimSpace(block)
}

// cleanField collapses the newline-wrapped whitespace arXiv puts inside
// long field values and undoes the XML escapes that appear in titles.
func cleanField(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
	return replacer.Replace(s)
}
