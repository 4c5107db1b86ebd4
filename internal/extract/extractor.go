// Package extract drives the external language-model service that turns
// reference-list text into structured citation entries.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matsen/refcheck/internal/llm"
	"github.com/matsen/refcheck/internal/textmatch"
)

// DefaultChunkDelay is the pause between chunk calls; extraction is kept
// strictly sequential to respect external rate limits.
const DefaultChunkDelay = 1 * time.Second

// ErrExtraction indicates the extraction service was unreachable or its
// output could not be repaired into the expected schema.
var ErrExtraction = errors.New("citation extraction failed")

// Citation is one structured entry extracted from the reference list.
type Citation struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
}

// Extraction is the merged result across all chunks of one document.
type Extraction struct {
	PaperTitle string     `json:"paperTitle"`
	Citations  []Citation `json:"citations"`
}

// Extractor runs per-chunk extraction calls and merges the results.
type Extractor struct {
	completer  llm.Completer
	chunkDelay time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithChunkDelay sets the inter-chunk delay.
func WithChunkDelay(d time.Duration) Option {
	return func(e *Extractor) {
		e.chunkDelay = d
	}
}

// New creates an Extractor backed by the given completion client.
func New(completer llm.Completer, opts ...Option) *Extractor {
	e := &Extractor{
		completer:  completer,
		chunkDelay: DefaultChunkDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract processes chunks strictly in order, one call per chunk, pausing
// between calls. Only the first chunk's paperTitle is retained; citations
// are concatenated across chunks and deduplicated by normalized title with
// the first occurrence winning.
func (e *Extractor) Extract(ctx context.Context, chunks []string) (Extraction, error) {
	var merged Extraction

	for i, chunk := range chunks {
		if i > 0 && e.chunkDelay > 0 {
			select {
			case <-time.After(e.chunkDelay):
			case <-ctx.Done():
				return Extraction{}, ctx.Err()
			}
		}

		payload, err := e.extractChunk(ctx, chunk)
		if err != nil {
			return Extraction{}, err
		}

		if i == 0 {
			merged.PaperTitle = payload.PaperTitle
		}
		merged.Citations = append(merged.Citations, payload.Citations...)
	}

	merged.Citations = dedupeCitations(merged.Citations)
	return merged, nil
}

// extractChunk performs one completion call and repairs its output.
func (e *Extractor) extractChunk(ctx context.Context, chunk string) (Payload, error) {
	response, err := e.completer.Complete(ctx, buildPrompt(chunk))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	payload, ok := ParsePayload(response)
	if !ok {
		return Payload{}, fmt.Errorf("%w: unparseable model output", ErrExtraction)
	}

	return validatePayload(payload), nil
}

// validatePayload drops entries without a usable title and defaults missing
// author lists to empty.
func validatePayload(p Payload) Payload {
	kept := make([]Citation, 0, len(p.Citations))
	for _, c := range p.Citations {
		if textmatch.Normalize(c.Title) == "" {
			continue
		}
		if c.Authors == nil {
			c.Authors = []string{}
		}
		kept = append(kept, c)
	}
	p.Citations = kept
	return p
}

// dedupeCitations removes duplicates by normalized title, keeping the first
// occurrence. Chunk overlap makes duplicates routine, not exceptional.
func dedupeCitations(citations []Citation) []Citation {
	seen := make(map[string]bool, len(citations))
	out := make([]Citation, 0, len(citations))
	for _, c := range citations {
		key := textmatch.Normalize(c.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
