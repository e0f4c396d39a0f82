package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/globaldeals/catalog-service/internal/pkg/cuid2"
)

// Feed run lifecycle states.
const (
	FeedRunRunning   = "running"
	FeedRunCompleted = "completed"
	FeedRunFailed    = "failed"
)

// FeedRun records one feed import, successful or not, for the admin
// import history.
type FeedRun struct {
	ID         string     `json:"id"`
	Platform   string     `json:"platform"`
	Filename   string     `json:"filename,omitempty"`
	FileType   string     `json:"file_type,omitempty"`
	Status     string     `json:"status"`
	Imported   int        `json:"imported"`
	Updated    int        `json:"updated"`
	Failed     int        `json:"failed"`
	Errors     []string   `json:"errors,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// StartFeedRun records the start of an import and returns its ID.
func (s *Store) StartFeedRun(ctx context.Context, platform, filename, fileType string) (string, error) {
	id := cuid2.NewID("run")
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feed_runs (id, platform, filename, file_type, status, started_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, id, platform, filename, fileType, FeedRunRunning)
	if err != nil {
		return "", fmt.Errorf("error starting feed run: %w", err)
	}
	return id, nil
}

// FinishFeedRun marks a run completed or failed with its final counters.
func (s *Store) FinishFeedRun(ctx context.Context, id, status string, imported, updated, failed int, errs []string) error {
	// Cap stored errors so a pathological feed cannot bloat the row.
	if len(errs) > 50 {
		errs = errs[:50]
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE feed_runs
		SET status = $2, imported = $3, updated = $4, failed = $5,
		    errors = $6, finished_at = NOW()
		WHERE id = $1
	`, id, status, imported, updated, failed, errs)
	if err != nil {
		return fmt.Errorf("error finishing feed run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFeedRuns returns the most recent runs, newest first.
func (s *Store) ListFeedRuns(ctx context.Context, limit int) ([]FeedRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, platform, filename, file_type, status,
		       imported, updated, failed, errors, started_at, finished_at
		FROM feed_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying feed runs: %w", err)
	}
	defer rows.Close()

	runs := make([]FeedRun, 0, limit)
	for rows.Next() {
		var run FeedRun
		err := rows.Scan(
			&run.ID, &run.Platform, &run.Filename, &run.FileType, &run.Status,
			&run.Imported, &run.Updated, &run.Failed, &run.Errors,
			&run.StartedAt, &run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning feed run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetFeedRun returns one run by ID.
func (s *Store) GetFeedRun(ctx context.Context, id string) (*FeedRun, error) {
	var run FeedRun
	err := s.pool.QueryRow(ctx, `
		SELECT id, platform, filename, file_type, status,
		       imported, updated, failed, errors, started_at, finished_at
		FROM feed_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.Platform, &run.Filename, &run.FileType, &run.Status,
		&run.Imported, &run.Updated, &run.Failed, &run.Errors,
		&run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying feed run %s: %w", id, err)
	}
	return &run, nil
}
