package verify

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matsen/refcheck/internal/extract"
)

// funcResolver adapts a function to CitationResolver.
type funcResolver func(ctx context.Context, c extract.Citation) Outcome

func (f funcResolver) Resolve(ctx context.Context, c extract.Citation) Outcome {
	return f(ctx, c)
}

// jitterResolver verifies titles with random latency so completion order
// differs from submission order.
func jitterResolver(calls *int64) CitationResolver {
	return funcResolver(func(ctx context.Context, c extract.Citation) Outcome {
		atomic.AddInt64(calls, 1)
		time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
		return Outcome{Score: 0.9, SourceURL: "https://example.org/" + c.Title}
	})
}

func citationList(titles ...string) []extract.Citation {
	out := make([]extract.Citation, len(titles))
	for i, title := range titles {
		out[i] = extract.Citation{Title: title, Authors: []string{"Author " + title}}
	}
	return out
}

func TestVerifyPreservesOrder(t *testing.T) {
	var calls int64
	engine := NewEngine(jitterResolver(&calls), WithWorkers(4))

	citations := citationList("A", "B", "C", "D", "E", "F", "G", "H")
	report, err := engine.Verify(context.Background(), "Paper", citations)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if report.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(report.Citations) != len(citations) {
		t.Fatalf("len(Citations) = %d, want %d", len(report.Citations), len(citations))
	}
	for i, r := range report.Citations {
		if r.Citation.Title != citations[i].Title {
			t.Errorf("Citations[%d].Title = %q, want %q (order must match input)", i, r.Citation.Title, citations[i].Title)
		}
	}
}

func TestVerifyCounts(t *testing.T) {
	resolver := funcResolver(func(ctx context.Context, c extract.Citation) Outcome {
		if c.Title == "good" {
			return Outcome{Score: 0.9, SourceURL: "https://example.org/good"}
		}
		return Outcome{Score: 0.1}
	})

	engine := NewEngine(resolver, WithMinScore(0.5), WithWorkers(2))
	report, err := engine.Verify(context.Background(), "Paper",
		citationList("good", "bad", "good"))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if report.TotalCount != 3 || report.VerifiedCount != 2 || report.UnverifiedCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1",
			report.TotalCount, report.VerifiedCount, report.UnverifiedCount)
	}
	if report.Citations[1].Status != StatusUnverified {
		t.Errorf("Citations[1].Status = %q", report.Citations[1].Status)
	}
	if report.Citations[1].SourceURL != "" {
		t.Errorf("unverified result carries SourceURL %q", report.Citations[1].SourceURL)
	}
	if report.Citations[0].SourceURL == "" {
		t.Error("verified result has no SourceURL")
	}
}

func TestVerifyThresholdIsInclusive(t *testing.T) {
	resolver := funcResolver(func(ctx context.Context, c extract.Citation) Outcome {
		return Outcome{Score: 0.5, SourceURL: "u"}
	})

	engine := NewEngine(resolver, WithMinScore(0.5))
	report, err := engine.Verify(context.Background(), "P", citationList("X"))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if report.Citations[0].Status != StatusVerified {
		t.Errorf("score == minScore should verify, got %q", report.Citations[0].Status)
	}
}

func TestVerifyCacheDeduplicatesLookups(t *testing.T) {
	var calls int64
	engine := NewEngine(jitterResolver(&calls), WithWorkers(1))

	// Same citation three times: the title normalizes identically.
	citations := []extract.Citation{
		{Title: "A Study", Authors: []string{"Smith"}},
		{Title: "a study", Authors: []string{"Smith"}},
		{Title: "A  Study!", Authors: []string{"Smith"}},
	}
	report, err := engine.Verify(context.Background(), "P", citations)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("resolver calls = %d, want 1 (cache hit for repeats)", got)
	}
	// Cached results still carry each slot's own citation text.
	if report.Citations[1].Citation.Title != "a study" {
		t.Errorf("Citations[1].Citation.Title = %q", report.Citations[1].Citation.Title)
	}
}

func TestVerifyCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	resolver := funcResolver(func(rctx context.Context, c extract.Citation) Outcome {
		cancel()
		time.Sleep(5 * time.Millisecond)
		return Outcome{Score: 1}
	})

	engine := NewEngine(resolver, WithWorkers(1))
	_, err := engine.Verify(ctx, "P", citationList("A", "B", "C", "D"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Verify() error = %v, want context.Canceled", err)
	}
}

func TestEngineOptionClamps(t *testing.T) {
	engine := NewEngine(nil, WithMinScore(1.5), WithWorkers(100))
	if engine.minScore != 1 {
		t.Errorf("minScore = %v, want clamp to 1", engine.minScore)
	}
	if engine.workers != MaxWorkers {
		t.Errorf("workers = %d, want %d", engine.workers, MaxWorkers)
	}

	engine = NewEngine(nil, WithMinScore(-3), WithWorkers(0))
	if engine.minScore != 0 {
		t.Errorf("minScore = %v, want clamp to 0", engine.minScore)
	}
	if engine.workers != 1 {
		t.Errorf("workers = %d, want 1", engine.workers)
	}
}
