package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeCompleter returns canned responses in call order.
type fakeCompleter struct {
	responses []string
	err       error
	calls     int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.calls >= len(f.responses) {
		return "", fmt.Errorf("unexpected call %d", f.calls)
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func TestExtractMergesChunks(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		`{"paperTitle": "First Title", "citations": [{"title": "A Study", "authors": ["Smith"]}]}`,
		`{"paperTitle": "Second Title", "citations": [{"title": "a study", "authors": ["Jones"]}, {"title": "B Study", "authors": []}]}`,
	}}

	extractor := New(completer, WithChunkDelay(0))
	result, err := extractor.Extract(context.Background(), []string{"chunk one", "chunk two"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	// Only the first chunk names the paper.
	if result.PaperTitle != "First Title" {
		t.Errorf("PaperTitle = %q, want %q", result.PaperTitle, "First Title")
	}

	// "a study" duplicates "A Study" after normalization; first wins.
	if len(result.Citations) != 2 {
		t.Fatalf("len(Citations) = %d, want 2", len(result.Citations))
	}
	if result.Citations[0].Title != "A Study" {
		t.Errorf("Citations[0].Title = %q, want %q", result.Citations[0].Title, "A Study")
	}
	if result.Citations[0].Authors[0] != "Smith" {
		t.Errorf("dedupe kept the wrong occurrence: authors = %v", result.Citations[0].Authors)
	}
	if result.Citations[1].Title != "B Study" {
		t.Errorf("Citations[1].Title = %q, want %q", result.Citations[1].Title, "B Study")
	}
}

func TestExtractDropsEmptyTitles(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		`{"paperTitle": "P", "citations": [{"title": "  ", "authors": ["X"]}, {"title": "Real", "authors": null}]}`,
	}}

	extractor := New(completer, WithChunkDelay(0))
	result, err := extractor.Extract(context.Background(), []string{"chunk"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(result.Citations) != 1 {
		t.Fatalf("len(Citations) = %d, want 1", len(result.Citations))
	}
	if result.Citations[0].Authors == nil {
		t.Error("missing author list should default to empty, got nil")
	}
}

func TestExtractUnparseableOutput(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		"I'm sorry, I can't help with that.",
	}}

	extractor := New(completer, WithChunkDelay(0))
	_, err := extractor.Extract(context.Background(), []string{"chunk"})
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("Extract() error = %v, want ErrExtraction", err)
	}
}

func TestExtractServiceFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("service down")}

	extractor := New(completer, WithChunkDelay(0))
	_, err := extractor.Extract(context.Background(), []string{"chunk"})
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("Extract() error = %v, want ErrExtraction", err)
	}
}

func TestExtractCancelledBetweenChunks(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		`{"paperTitle": "P", "citations": [{"title": "A", "authors": []}]}`,
		`{"paperTitle": "P", "citations": [{"title": "B", "authors": []}]}`,
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Non-zero delay so the second chunk hits the cancellation select.
	extractor := New(completer)
	_, err := extractor.Extract(ctx, []string{"one", "two"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
}
