package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/refcheck/internal/extract"
	"github.com/matsen/refcheck/internal/refsection"
)

// ErrInput indicates unusable input: an empty reference section or a
// document from which no citations could be extracted. Terminal and never
// retried.
var ErrInput = errors.New("unusable input")

// Pipeline is the full verification run: locate the reference section,
// extract citations, verify them, and emit the event sequence.
type Pipeline struct {
	extractor    *extract.Extractor
	engine       *Engine
	reporter     *Reporter
	maxChunkSize int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithMaxChunkSize overrides the extraction chunk size bound.
func WithMaxChunkSize(n int) PipelineOption {
	return func(p *Pipeline) {
		p.maxChunkSize = n
	}
}

// WithPipelineReporter attaches the event reporter. The same reporter is
// handed to the engine for per-citation progress.
func WithPipelineReporter(r *Reporter) PipelineOption {
	return func(p *Pipeline) {
		p.reporter = r
	}
}

// NewPipeline assembles a run from its extraction and verification halves.
func NewPipeline(extractor *extract.Extractor, engine *Engine, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		extractor:    extractor,
		engine:       engine,
		maxChunkSize: refsection.DefaultMaxChunkSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.reporter != nil && p.engine != nil {
		p.engine.reporter = p.reporter
	}
	return p
}

// Run executes the pipeline over raw extracted document text. On success
// the reporter (if any) receives progress events then one result event; on
// failure it receives one error event. The returned report and error mirror
// the terminal event.
func (p *Pipeline) Run(ctx context.Context, rawText string) (*Report, error) {
	report, err := p.run(ctx, rawText)
	if err != nil {
		p.reporter.Fail(err)
		return nil, err
	}
	p.reporter.Result(report)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, rawText string) (*Report, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("%w: document text is empty", ErrInput)
	}

	p.reporter.Progress("locating reference section")
	section := refsection.Locate(rawText)
	if strings.TrimSpace(section) == "" {
		return nil, fmt.Errorf("%w: reference section is empty", ErrInput)
	}

	chunks := refsection.SplitChunks(section, p.maxChunkSize)
	p.reporter.Progress("extracting citations from %d chunk(s)", len(chunks))

	extraction, err := p.extractor.Extract(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(extraction.Citations) == 0 {
		return nil, fmt.Errorf("%w: no citations extracted from document", ErrInput)
	}

	p.reporter.Progress("verifying %d citation(s)", len(extraction.Citations))
	return p.engine.Verify(ctx, extraction.PaperTitle, extraction.Citations)
}
