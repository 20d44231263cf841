// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// StageRecord is one stored stage output.
type StageRecord struct {
	Stage      string `json:"stage" yaml:"stage"`
	Output     string `json:"output" yaml:"output"`
	StartedAt  string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

const runColumns = `r.id, r.company_or_industry, r.context, r.status, r.started_at, r.finished_at,
	r.error, r.markdown_path, r.html_path, r.proposal`

// GetRun returns the run with the given ID.
func (s *Store) GetRun(ctx context.Context, id string) (*types.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up run: %w", err)
	}
	return rec, nil
}

// Stages returns the stored stage outputs of a run in pipeline order.
func (s *Store) Stages(ctx context.Context, runID string) ([]StageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, output, started_at, finished_at FROM stages WHERE run_id = ? ORDER BY started_at, stage`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying stages: %w", err)
	}
	defer rows.Close()

	var out []StageRecord
	for rows.Next() {
		var (
			rec               StageRecord
			output            sql.NullString
			started, finished sql.NullString
		)
		if err := rows.Scan(&rec.Stage, &output, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning stage: %w", err)
		}
		rec.Output = output.String
		rec.StartedAt = started.String
		rec.FinishedAt = finished.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListRuns returns the most recent runs first. limit <= 0 uses the store
// default.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs r ORDER BY r.started_at DESC, r.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return collectRuns(rows)
}

// Search runs a full-text query over subjects and proposals, best match
// first. Each whitespace-separated term must appear.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]types.RunRecord, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+`
		FROM runs_fts
		JOIN runs r ON r.rowid = runs_fts.rowid
		WHERE runs_fts MATCH ?
		ORDER BY runs_fts.rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching runs: %w", err)
	}
	return collectRuns(rows)
}

// ftsQuery quotes each term so user input cannot inject FTS5 syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*types.RunRecord, error) {
	var (
		rec                                        types.RunRecord
		status                                     string
		started, finished                          sql.NullString
		runContext, runErr, mdPath, htmlPath, prop sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.CompanyOrIndustry, &runContext, &status, &started, &finished,
		&runErr, &mdPath, &htmlPath, &prop); err != nil {
		return nil, err
	}
	rec.Status = types.RunStatus(status)
	rec.StartedAt = parseTime(started)
	rec.FinishedAt = parseTime(finished)
	rec.Context = runContext.String
	rec.Error = runErr.String
	rec.MarkdownPath = mdPath.String
	rec.HTMLPath = htmlPath.String
	rec.Proposal = prop.String
	return &rec, nil
}

func collectRuns(rows *sql.Rows) ([]types.RunRecord, error) {
	defer rows.Close()
	var out []types.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
