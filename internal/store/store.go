// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps the history of pipeline runs in SQLite: one row per
// run, the output of each stage, and a full-text index over proposals.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

const (
	dbFile            = "runs.db"
	defaultMaxResults = 20

	// timeLayout is fixed width so stored timestamps sort chronologically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// Store manages the run history database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// New opens or creates <cfg.DataDir>/runs.db and its schema.
func New(cfg types.StoreConfig) (*Store, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("store data directory is not set")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			company_or_industry TEXT NOT NULL,
			context TEXT,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			error TEXT,
			markdown_path TEXT,
			html_path TEXT,
			proposal TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS stages (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			stage TEXT NOT NULL,
			output TEXT,
			started_at TEXT,
			finished_at TEXT,
			PRIMARY KEY (run_id, stage)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='runs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE runs_fts USING fts5(company_or_industry, proposal, content=runs, content_rowid=rowid)`,
		`CREATE TRIGGER runs_ai AFTER INSERT ON runs BEGIN
			INSERT INTO runs_fts(rowid, company_or_industry, proposal) VALUES (new.rowid, new.company_or_industry, new.proposal);
		END`,
		`CREATE TRIGGER runs_ad AFTER DELETE ON runs BEGIN
			INSERT INTO runs_fts(runs_fts, rowid, company_or_industry, proposal) VALUES('delete', old.rowid, old.company_or_industry, old.proposal);
		END`,
		`CREATE TRIGGER runs_au AFTER UPDATE ON runs BEGIN
			INSERT INTO runs_fts(runs_fts, rowid, company_or_industry, proposal) VALUES('delete', old.rowid, old.company_or_industry, old.proposal);
			INSERT INTO runs_fts(rowid, company_or_industry, proposal) VALUES (new.rowid, new.company_or_industry, new.proposal);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// CreateRun records a new run in the running state.
func (s *Store) CreateRun(ctx context.Context, id string, subject types.Subject, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, company_or_industry, context, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, subject.CompanyOrIndustry, subject.Context, string(types.RunRunning), formatTime(startedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", id, err)
	}
	return nil
}

// SaveStage stores (or replaces) one stage's output for a run.
func (s *Store) SaveStage(ctx context.Context, runID, stage, output string, startedAt, finishedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stages (run_id, stage, output, started_at, finished_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, stage) DO UPDATE SET
			output=excluded.output, started_at=excluded.started_at, finished_at=excluded.finished_at`,
		runID, stage, output, formatTime(startedAt), formatTime(finishedAt),
	)
	if err != nil {
		return fmt.Errorf("saving stage %s of run %s: %w", stage, runID, err)
	}
	return nil
}

// CompleteRun marks a run completed with its proposal and file paths.
func (s *Store) CompleteRun(ctx context.Context, runID, proposal string, files types.ProposalFiles, finishedAt time.Time) error {
	return s.finish(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, proposal = ?, markdown_path = ?, html_path = ? WHERE id = ?`,
		runID, string(types.RunCompleted), formatTime(finishedAt), proposal, files.Markdown, files.HTML, runID)
}

// FailRun marks a run failed with the error message.
func (s *Store) FailRun(ctx context.Context, runID string, runErr error, finishedAt time.Time) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return s.finish(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error = ? WHERE id = ?`,
		runID, string(types.RunFailed), formatTime(finishedAt), msg, runID)
}

func (s *Store) finish(ctx context.Context, query, runID string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
