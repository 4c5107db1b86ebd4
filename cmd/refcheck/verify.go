package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/refcheck/internal/arxiv"
	"github.com/matsen/refcheck/internal/config"
	"github.com/matsen/refcheck/internal/extract"
	"github.com/matsen/refcheck/internal/llm"
	"github.com/matsen/refcheck/internal/lookup"
	"github.com/matsen/refcheck/internal/pdf"
	"github.com/matsen/refcheck/internal/scholar"
	"github.com/matsen/refcheck/internal/storage"
	"github.com/matsen/refcheck/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify the citations in a document",
	Long: `Verify that the citations in a document correspond to real papers.

The input may be a PDF or a plain-text file of extracted document text.
refcheck locates the reference section, extracts structured citations with
a language model, resolves each against Semantic Scholar and arXiv, and
reports per-citation verdicts with similarity scores.

Requires OPENAI_API_KEY (or openai_api_key in the config file). An
S2_API_KEY raises the Semantic Scholar rate budget but is optional.`,
	Args: cobra.ExactArgs(1),
	Run:  runVerify,
}

var (
	verifyMinScore float64
	verifyWorkers  int
	verifyTimeout  int
	verifyRetries  int
	verifyModel    string
	verifyDebug    bool
	verifyEvents   bool
	verifySave     bool
)

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Float64Var(&verifyMinScore, "min-score", -1, "Acceptance threshold in [0,1] (default 0.5)")
	verifyCmd.Flags().IntVar(&verifyWorkers, "workers", 0, "Verification worker count, capped at 8 (default 4)")
	verifyCmd.Flags().IntVar(&verifyTimeout, "timeout", 0, "Per-lookup timeout in seconds (default 20)")
	verifyCmd.Flags().IntVar(&verifyRetries, "retries", 0, "Attempts per external call (default 3)")
	verifyCmd.Flags().StringVar(&verifyModel, "model", "", "Extraction model (default "+llm.DefaultModel+")")
	verifyCmd.Flags().BoolVar(&verifyDebug, "debug", false, "Include lookup error diagnostics in results")
	verifyCmd.Flags().BoolVar(&verifyEvents, "events", false, "Stream progress events as NDJSON on stderr")
	verifyCmd.Flags().BoolVar(&verifySave, "save", false, "Persist the report to the run database")
}

func runVerify(cmd *cobra.Command, args []string) {
	// Load .env file if present (ignore errors - it's optional)
	_ = godotenv.Load()

	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	text, err := readDocument(args[0])
	if err != nil {
		exitWithError(ExitError, "reading document: %v", err)
	}

	pipeline, reporter := buildPipeline(cfg)

	// Stream the event sequence before starting the run; the channel closes
	// after the terminal event.
	eventsDone := make(chan struct{})
	if reporter != nil {
		go func() {
			defer close(eventsDone)
			enc := json.NewEncoder(os.Stderr)
			for ev := range reporter.Events() {
				_ = enc.Encode(ev)
			}
		}()
	} else {
		close(eventsDone)
	}

	report, err := pipeline.Run(context.Background(), text)
	<-eventsDone
	if err != nil {
		switch {
		case errors.Is(err, verify.ErrInput):
			exitWithError(ExitInputError, "%v", err)
		case errors.Is(err, extract.ErrExtraction):
			exitWithError(ExitExtractErr, "%v", err)
		default:
			exitWithError(ExitError, "%v", err)
		}
	}

	if verifySave {
		if err := saveReport(report); err != nil {
			// Persistence failure never invalidates the report itself.
			fmt.Fprintf(os.Stderr, "Warning: failed to save run: %v\n", err)
		}
	}

	if humanOutput {
		printReportHuman(report)
	} else {
		outputJSON(report)
	}
}

// readDocument loads the input as plain text, extracting from PDF when the
// extension says so.
func readDocument(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdf.ExtractText(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// buildPipeline assembles the full verification pipeline from config and
// flags. Flag values override config; environment variables override both
// for API keys.
func buildPipeline(cfg *config.GlobalConfig) (*verify.Pipeline, *verify.Reporter) {
	retry := lookup.DefaultRetryPolicy()
	if cfg.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.RetryAttempts
	}
	if verifyRetries > 0 {
		retry.MaxAttempts = verifyRetries
	}
	retry.MaxBackoff = cfg.BackoffCeiling(retry.MaxBackoff)

	lookupTimeout := cfg.LookupTimeout(lookup.DefaultTimeout)
	if verifyTimeout > 0 {
		lookupTimeout = time.Duration(verifyTimeout) * time.Second
	}

	scholarOpts := []scholar.ClientOption{
		scholar.WithTimeout(lookupTimeout),
		scholar.WithRetryPolicy(retry),
	}
	if cfg.ScholarBaseURL != "" {
		scholarOpts = append(scholarOpts, scholar.WithBaseURL(cfg.ScholarBaseURL))
	}
	if cfg.S2APIKey != "" && os.Getenv("S2_API_KEY") == "" {
		scholarOpts = append(scholarOpts, scholar.WithAPIKey(cfg.S2APIKey))
	}
	scholarClient := scholar.NewClient(scholarOpts...)

	arxivOpts := []arxiv.ClientOption{
		arxiv.WithTimeout(lookupTimeout),
		arxiv.WithRetryPolicy(retry),
	}
	if cfg.ArxivBaseURL != "" {
		arxivOpts = append(arxivOpts, arxiv.WithBaseURL(cfg.ArxivBaseURL))
	}
	arxivClient := arxiv.NewClient(arxivOpts...)

	llmOpts := []llm.ClientOption{
		llm.WithTimeout(cfg.LLMTimeout(llm.DefaultTimeout)),
		llm.WithRetry(retry.MaxAttempts, 0, 0),
	}
	if cfg.LLMBaseURL != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(cfg.LLMBaseURL))
	}
	model := cfg.LLMModel
	if verifyModel != "" {
		model = verifyModel
	}
	if model != "" {
		llmOpts = append(llmOpts, llm.WithModel(model))
	}
	if cfg.OpenAIAPIKey != "" && os.Getenv("OPENAI_API_KEY") == "" {
		llmOpts = append(llmOpts, llm.WithAPIKey(cfg.OpenAIAPIKey))
	}
	llmClient := llm.NewClient(llmOpts...)

	debug := verifyDebug || cfg.Debug
	resolver := verify.NewResolver(scholarClient, arxivClient, debug)

	minScore := cfg.MinScoreOrDefault(verify.DefaultMinScore)
	if verifyMinScore >= 0 {
		minScore = verifyMinScore
	}
	workers := cfg.Workers
	if verifyWorkers > 0 {
		workers = verifyWorkers
	}
	if workers <= 0 {
		workers = verify.DefaultWorkers
	}

	var reporter *verify.Reporter
	if verifyEvents {
		reporter = verify.NewReporter(0)
	}

	engine := verify.NewEngine(resolver,
		verify.WithMinScore(minScore),
		verify.WithWorkers(workers),
		verify.WithReporter(reporter),
	)

	pipeline := verify.NewPipeline(extract.New(llmClient), engine,
		verify.WithPipelineReporter(reporter),
	)
	return pipeline, reporter
}

// saveReport persists the report to the run database.
func saveReport(report *verify.Report) error {
	dbPath := config.DBPath()
	if dbPath == "" {
		return fmt.Errorf("cannot determine data directory")
	}
	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.SaveReport(report)
}
