package verify

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/matsen/refcheck/internal/extract"
	"github.com/matsen/refcheck/internal/textmatch"
)

const (
	// DefaultMinScore is the acceptance threshold separating verified from
	// unverified.
	DefaultMinScore = 0.5

	// DefaultWorkers is the verification pool size.
	DefaultWorkers = 4

	// MaxWorkers is the hard cap on pool size regardless of configuration.
	MaxWorkers = 8
)

// CitationResolver resolves one citation to a scored outcome.
type CitationResolver interface {
	Resolve(ctx context.Context, citation extract.Citation) Outcome
}

// Engine runs a bounded worker pool over the citation list, caching
// resolutions so a repeated (title, authors) pair costs one external lookup
// per run.
type Engine struct {
	resolver CitationResolver
	reporter *Reporter
	minScore float64
	workers  int

	// cache maps normalized (title, authors) keys to *Result. Racing
	// inserts of the same key are benign: identical input resolves to an
	// equivalent value.
	cache sync.Map
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMinScore sets the acceptance threshold, clamped to [0,1].
func WithMinScore(s float64) EngineOption {
	return func(e *Engine) {
		if s < 0 {
			s = 0
		}
		if s > 1 {
			s = 1
		}
		e.minScore = s
	}
}

// WithWorkers sets the pool size, clamped to [1, MaxWorkers].
func WithWorkers(w int) EngineOption {
	return func(e *Engine) {
		if w < 1 {
			w = 1
		}
		if w > MaxWorkers {
			w = MaxWorkers
		}
		e.workers = w
	}
}

// WithReporter attaches a progress reporter. A nil reporter is valid and
// discards events.
func WithReporter(r *Reporter) EngineOption {
	return func(e *Engine) {
		e.reporter = r
	}
}

// NewEngine creates a verification engine over the given resolver.
func NewEngine(resolver CitationResolver, opts ...EngineOption) *Engine {
	e := &Engine{
		resolver: resolver,
		minScore: DefaultMinScore,
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// cacheKey builds the run-scoped lookup cache key.
func cacheKey(c extract.Citation) string {
	return textmatch.Normalize(c.Title) + "|" + strings.Join(textmatch.NormalizeAuthors(c.Authors), ",")
}

// Verify resolves every citation and assembles the ordered report. Workers
// pull indices from a shared queue and write into index-disjoint slots of a
// pre-sized result slice, so result assembly needs no locking. A cancelled
// context stops scheduling and returns the context error; no partial report
// is produced.
func (e *Engine) Verify(ctx context.Context, paperTitle string, citations []extract.Citation) (*Report, error) {
	results := make([]Result, len(citations))
	indices := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				results[idx] = e.verifyOne(ctx, idx, len(citations), citations[idx])
			}
		}()
	}

	cancelled := false
feed:
	for i := range citations {
		select {
		case indices <- i:
		case <-ctx.Done():
			cancelled = true
			break feed
		}
	}
	close(indices)
	wg.Wait()

	if cancelled || ctx.Err() != nil {
		return nil, ctx.Err()
	}

	report := &Report{
		RunID:      uuid.NewString(),
		PaperTitle: paperTitle,
		Citations:  results,
	}
	report.recount()
	return report, nil
}

// verifyOne resolves a single citation, consulting the cache first.
func (e *Engine) verifyOne(ctx context.Context, idx, total int, citation extract.Citation) Result {
	key := cacheKey(citation)
	if cached, ok := e.cache.Load(key); ok {
		result := *cached.(*Result)
		result.Citation = citation
		return result
	}

	e.reporter.Progress("verifying citation %d/%d: %s", idx+1, total, citation.Title)

	outcome := e.resolver.Resolve(ctx, citation)

	result := Result{
		Citation: citation,
		Score:    outcome.Score,
		Status:   StatusUnverified,
	}
	if outcome.Score >= e.minScore {
		result.Status = StatusVerified
		result.SourceURL = outcome.SourceURL
	}
	result.LookupErrors = outcome.Errors

	e.cache.Store(key, &result)
	return result
}
