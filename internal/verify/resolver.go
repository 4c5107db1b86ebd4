package verify

import (
	"context"
	"fmt"

	"github.com/matsen/refcheck/internal/extract"
	"github.com/matsen/refcheck/internal/lookup"
	"github.com/matsen/refcheck/internal/textmatch"
)

// Scoring weights: title similarity dominates, author overlap breaks near
// misses.
const (
	titleWeight  = 0.8
	authorWeight = 0.2
)

// ScholarSource is the exact-match-oriented scholarly index (Source A).
type ScholarSource interface {
	FindPaper(ctx context.Context, title string) (*lookup.Candidate, error)
}

// ArxivSource is the preprint archive (Source B).
type ArxivSource interface {
	FindPaper(ctx context.Context, title, firstAuthor string) (*lookup.Candidate, error)
}

// Outcome is the scored result of resolving one citation against both
// sources. Resolution never fails; lookup errors degrade to a zero-score
// outcome with optional diagnostics.
type Outcome struct {
	Score     float64
	SourceURL string
	Errors    []string
}

// Resolver queries both lookup services for a citation and ranks the
// candidates they return.
type Resolver struct {
	scholar ScholarSource
	arxiv   ArxivSource
	debug   bool
}

// NewResolver creates a Resolver over the two lookup sources. Either source
// may be nil, in which case it simply never contributes a candidate.
func NewResolver(scholar ScholarSource, arxiv ArxivSource, debug bool) *Resolver {
	return &Resolver{scholar: scholar, arxiv: arxiv, debug: debug}
}

// sourceResult carries one source's candidate or failure across the fan-in.
type sourceResult struct {
	candidate *lookup.Candidate
	source    lookup.SourceKind
	err       error
}

// Resolve fans out to both sources concurrently, waits for both, and keeps
// the higher-scoring candidate. Ties favor the scholarly index; this is a
// deliberate policy, not an artifact of evaluation order.
func (r *Resolver) Resolve(ctx context.Context, citation extract.Citation) Outcome {
	results := make(chan sourceResult, 2)

	go func() {
		var cand *lookup.Candidate
		var err error
		if r.scholar != nil {
			cand, err = r.scholar.FindPaper(ctx, citation.Title)
		}
		results <- sourceResult{candidate: cand, source: lookup.SourceScholar, err: err}
	}()

	go func() {
		var cand *lookup.Candidate
		var err error
		if r.arxiv != nil {
			firstAuthor := ""
			if len(citation.Authors) > 0 {
				firstAuthor = citation.Authors[0]
			}
			cand, err = r.arxiv.FindPaper(ctx, citation.Title, firstAuthor)
		}
		results <- sourceResult{candidate: cand, source: lookup.SourceArxiv, err: err}
	}()

	bySource := make(map[lookup.SourceKind]sourceResult, 2)
	for i := 0; i < 2; i++ {
		res := <-results
		bySource[res.source] = res
	}

	var outcome Outcome
	for _, kind := range []lookup.SourceKind{lookup.SourceScholar, lookup.SourceArxiv} {
		res := bySource[kind]

		if res.err != nil && !lookup.IsNotFound(res.err) && r.debug {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %v", kind, res.err))
		}
		if res.candidate == nil {
			continue
		}

		score := scoreCandidate(citation, res.candidate)
		// Strict > keeps the scholarly index on equal scores.
		if score > outcome.Score {
			outcome.Score = score
			outcome.SourceURL = res.candidate.URL
		}
	}

	if outcome.Score > 1 {
		outcome.Score = 1
	}
	return outcome
}

// scoreCandidate computes the weighted match score between a citation and
// one candidate.
func scoreCandidate(citation extract.Citation, cand *lookup.Candidate) float64 {
	titleSim := textmatch.Similarity(
		textmatch.Normalize(citation.Title),
		textmatch.Normalize(cand.Title),
	)
	overlap := textmatch.AuthorOverlap(citation.Authors, cand.Authors)
	return titleWeight*titleSim + authorWeight*overlap
}
