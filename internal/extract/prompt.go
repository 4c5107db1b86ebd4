package extract

import "fmt"

// buildPrompt builds the extraction instruction for one chunk. The response
// contract is a single bare JSON object; the repair chain handles models
// that ignore the formatting rules anyway.
func buildPrompt(chunk string) string {
	return fmt.Sprintf(`You are extracting bibliography entries from the reference section of an academic paper.

Return a single JSON object with exactly this shape:
{"paperTitle": "title of the citing paper if evident, else empty string", "citations": [{"title": "cited work title", "authors": ["Author One", "Author Two"]}]}

Rules:
- Include every distinct cited work you can identify in the text below.
- "title" must be the title of the cited work only, without venue, year, or page numbers.
- "authors" lists the cited work's authors in order; use [] when none are identifiable.
- Return ONLY the JSON object. No markdown fences, no commentary, no trailing commas.

Reference text:
%s`, chunk)
}
