// Package lookup defines the candidate-match type shared by the
// bibliographic search clients, plus their common retry policy and errors.
package lookup

// SourceKind identifies which external service produced a candidate.
type SourceKind string

const (
	// SourceScholar is the exact-match-oriented scholarly index.
	SourceScholar SourceKind = "scholar"

	// SourceArxiv is the preprint archive.
	SourceArxiv SourceKind = "arxiv"
)

// Candidate is one possible match for a citation returned by an external
// lookup service. Candidates are transient: they are scored and discarded.
type Candidate struct {
	Title   string
	Authors []string
	ID      string
	Source  SourceKind
	URL     string
}
