package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/refcheck/internal/verify"
)

// Title truncation length for human-readable listings.
const listTitleMaxLen = 70

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON)
// and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// printReportHuman prints a verification report in human-readable format.
func printReportHuman(report *verify.Report) {
	title := report.PaperTitle
	if title == "" {
		title = "(unknown paper)"
	}
	fmt.Printf("%s\n", title)
	fmt.Printf("run %s\n\n", report.RunID)

	for i, r := range report.Citations {
		marker := "✗"
		if r.Status == verify.StatusVerified {
			marker = "✓"
		}
		fmt.Printf("%3d. %s [%.2f] %s\n", i+1, marker, r.Score, truncateString(r.Citation.Title, listTitleMaxLen))
		if len(r.Citation.Authors) > 0 {
			fmt.Printf("       %s\n", formatAuthors(r.Citation.Authors, 3))
		}
		if r.SourceURL != "" {
			fmt.Printf("       %s\n", r.SourceURL)
		}
		for _, lookupErr := range r.LookupErrors {
			fmt.Printf("       ! %s\n", lookupErr)
		}
	}

	fmt.Printf("\n%d citations: %d verified, %d unverified\n",
		report.TotalCount, report.VerifiedCount, report.UnverifiedCount)
}

// formatAuthors formats authors with "et al." for more than maxCount.
func formatAuthors(authors []string, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}

	var names []string
	for i, a := range authors {
		if i >= maxCount {
			names = append(names, "et al.")
			break
		}
		names = append(names, a)
	}
	return strings.Join(names, ", ")
}
