package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Payload is the JSON object the extraction prompt demands from the model.
type Payload struct {
	PaperTitle string     `json:"paperTitle"`
	Citations  []Citation `json:"citations"`
}

// Model output is unreliable: fenced, decorated with prose, or sloppy JSON.
// Each strategy transforms the raw text into something that might parse;
// they are tried in order and the first schema-valid result wins.
type repairStrategy struct {
	name  string
	apply func(string) string
}

var repairChain = []repairStrategy{
	{"direct", func(s string) string { return s }},
	{"strip-fences", stripCodeFences},
	{"clean", cleanJSON},
	{"balanced-block", func(s string) string { return cleanJSON(extractBalancedBlock(s)) }},
}

// ParsePayload runs the repair chain over raw model output. It returns the
// first successfully parsed payload, or ok=false when every strategy fails.
func ParsePayload(raw string) (Payload, bool) {
	for _, strategy := range repairChain {
		candidate := strings.TrimSpace(strategy.apply(raw))
		if candidate == "" {
			continue
		}

		var payload Payload
		if err := json.Unmarshal([]byte(candidate), &payload); err == nil {
			return payload, true
		}
	}
	return Payload{}, false
}

// stripCodeFences removes a surrounding markdown code fence, if present.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return text
	}

	// Drop the opening fence line (``` or ```json) and a closing fence.
	start := 1
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

var (
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyPattern       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	smartQuoteReplacer   = strings.NewReplacer(
		"“", `"`, "”", `"`, // curly double quotes
		"‘", "'", "’", "'", // curly single quotes
	)
)

// cleanJSON repairs the most common model-output defects: stray control
// characters, trailing commas, typographic quotes, and unquoted object keys.
func cleanJSON(text string) string {
	text = stripCodeFences(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	text = b.String()

	text = smartQuoteReplacer.Replace(text)
	text = trailingCommaPattern.ReplaceAllString(text, "$1")
	text = bareKeyPattern.ReplaceAllString(text, `$1"$2"$3`)
	return text
}

// extractBalancedBlock returns the first balanced {...} or [...] block in
// the text, tracking strings so brackets inside values don't confuse the
// depth count. Returns "" when no balanced block exists.
func extractBalancedBlock(text string) string {
	start := -1
	var openRune, closeRune rune
	for i, r := range text {
		if r == '{' || r == '[' {
			start = i
			openRune = r
			if r == '{' {
				closeRune = '}'
			} else {
				closeRune = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i, r := range text[start:] {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			inString = true
		case openRune:
			depth++
		case closeRune:
			depth--
			if depth == 0 {
				return text[start : start+i+1]
			}
		}
	}

	return ""
}
