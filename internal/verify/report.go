// Package verify resolves extracted citations against the bibliographic
// lookup services and aggregates per-citation verdicts into a report.
package verify

import (
	"github.com/matsen/refcheck/internal/extract"
)

// Status is the verdict for one citation.
type Status string

const (
	// StatusVerified means the best candidate scored at or above minScore.
	StatusVerified Status = "verified"

	// StatusUnverified means no candidate reached minScore.
	StatusUnverified Status = "unverified"
)

// Result is the immutable verdict for one citation.
type Result struct {
	Citation extract.Citation `json:"citation"`
	Score    float64          `json:"score"`
	Status   Status           `json:"status"`

	// SourceURL points at the matched record; empty when unverified.
	SourceURL string `json:"source_url,omitempty"`

	// LookupErrors carries per-source diagnostic detail; populated only
	// when the run's debug flag is set.
	LookupErrors []string `json:"lookup_errors,omitempty"`
}

// Report is the final output of one verification run. Citations preserve
// extraction order regardless of worker completion order.
type Report struct {
	RunID           string   `json:"run_id"`
	PaperTitle      string   `json:"paper_title"`
	Citations       []Result `json:"citations"`
	TotalCount      int      `json:"total_count"`
	VerifiedCount   int      `json:"verified_count"`
	UnverifiedCount int      `json:"unverified_count"`
}

// recount recomputes the aggregate counters from the result list.
func (r *Report) recount() {
	r.TotalCount = len(r.Citations)
	r.VerifiedCount = 0
	for _, c := range r.Citations {
		if c.Status == StatusVerified {
			r.VerifiedCount++
		}
	}
	r.UnverifiedCount = r.TotalCount - r.VerifiedCount
}
