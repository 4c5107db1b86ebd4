// Package storage persists verification reports to SQLite. Persistence is
// a collaborator of the pipeline: reports stay valid even when saving them
// fails.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matsen/refcheck/internal/verify"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			paper_title TEXT NOT NULL,
			total_count INTEGER NOT NULL,
			verified_count INTEGER NOT NULL,
			unverified_count INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			authors_json TEXT NOT NULL,
			score REAL NOT NULL,
			status TEXT NOT NULL,
			source_url TEXT,
			PRIMARY KEY (run_id, position)
		);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveReport persists a report and its per-citation results.
func (d *DB) SaveReport(report *verify.Report) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, paper_title, total_count, verified_count, unverified_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID, report.PaperTitle, report.TotalCount,
		report.VerifiedCount, report.UnverifiedCount, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO results (run_id, position, title, authors_json, score, status, source_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range report.Citations {
		authors, err := json.Marshal(r.Citation.Authors)
		if err != nil {
			return fmt.Errorf("encoding authors: %w", err)
		}
		if _, err := stmt.Exec(report.RunID, i, r.Citation.Title, string(authors),
			r.Score, string(r.Status), r.SourceURL); err != nil {
			return fmt.Errorf("inserting result %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetReport loads a persisted report by run ID. Returns nil when the run is
// unknown.
func (d *DB) GetReport(runID string) (*verify.Report, error) {
	report := &verify.Report{RunID: runID}
	err := d.db.QueryRow(`
		SELECT paper_title, total_count, verified_count, unverified_count
		FROM runs WHERE run_id = ?`, runID).
		Scan(&report.PaperTitle, &report.TotalCount, &report.VerifiedCount, &report.UnverifiedCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	rows, err := d.db.Query(`
		SELECT title, authors_json, score, status, source_url
		FROM results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result verify.Result
		var authorsJSON string
		var sourceURL sql.NullString
		var status string
		if err := rows.Scan(&result.Citation.Title, &authorsJSON, &result.Score, &status, &sourceURL); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if err := json.Unmarshal([]byte(authorsJSON), &result.Citation.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors: %w", err)
		}
		result.Status = verify.Status(status)
		result.SourceURL = sourceURL.String
		report.Citations = append(report.Citations, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}

	return report, nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunID           string    `json:"run_id"`
	PaperTitle      string    `json:"paper_title"`
	TotalCount      int       `json:"total_count"`
	VerifiedCount   int       `json:"verified_count"`
	UnverifiedCount int       `json:"unverified_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListRuns returns persisted runs, most recent first.
func (d *DB) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.db.Query(`
		SELECT run_id, paper_title, total_count, verified_count, unverified_count, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var created int64
		if err := rows.Scan(&r.RunID, &r.PaperTitle, &r.TotalCount, &r.VerifiedCount, &r.UnverifiedCount, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.CreatedAt = time.Unix(created, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
