package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/refcheck/internal/config"
	"github.com/matsen/refcheck/internal/storage"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List saved verification runs or show one report",
	Long: `List verification runs saved with 'verify --save', most recent first.

With a run ID argument, print that run's full report instead.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRuns,
}

var runsLimit int

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVar(&runsLimit, "limit", 0, "Maximum runs to list (default 50)")
}

func runRuns(cmd *cobra.Command, args []string) {
	dbPath := config.DBPath()
	if dbPath == "" {
		exitWithError(ExitConfigError, "cannot determine data directory")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		exitWithError(ExitError, "no saved runs (run 'refcheck verify --save' first)")
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		exitWithError(ExitError, "opening run database: %v", err)
	}
	defer db.Close()

	if len(args) == 1 {
		showRun(db, args[0])
		return
	}

	runs, err := db.ListRuns(runsLimit)
	if err != nil {
		exitWithError(ExitError, "listing runs: %v", err)
	}

	if humanOutput {
		if len(runs) == 0 {
			fmt.Println("No saved runs.")
			return
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  %d/%d verified  %s\n",
				r.RunID, r.CreatedAt.Format("2006-01-02 15:04"),
				r.VerifiedCount, r.TotalCount,
				truncateString(r.PaperTitle, listTitleMaxLen))
		}
	} else {
		if runs == nil {
			runs = []storage.RunSummary{}
		}
		outputJSON(runs)
	}
}

func showRun(db *storage.DB, runID string) {
	report, err := db.GetReport(runID)
	if err != nil {
		exitWithError(ExitError, "loading run: %v", err)
	}
	if report == nil {
		exitWithError(ExitError, "run not found: %s", runID)
	}

	if humanOutput {
		printReportHuman(report)
	} else {
		outputJSON(report)
	}
}
