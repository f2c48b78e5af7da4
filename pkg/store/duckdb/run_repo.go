package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tunogya/groundhog/pkg/model"
)

// ErrRunNotFound is returned when no run has the requested ID
var ErrRunNotFound = errors.New("run not found")

// RunRepo handles run persistence
type RunRepo struct {
	client *Client
}

// NewRunRepo creates a new run repository
func NewRunRepo(client *Client) *RunRepo {
	return &RunRepo{client: client}
}

// Start records a run as running. Starting an existing run is a no-op.
func (r *RunRepo) Start(ctx context.Context, run *model.Run) error {
	status := run.Status
	if status == "" {
		status = model.RunRunning
	}
	query := `
		INSERT INTO runs (run_id, period, source, status, started_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO NOTHING
	`
	if err := r.client.Exec(ctx, query, run.RunID, run.Period, run.Source, status, run.StartedAt); err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// Finish stores the totals of a report and marks the run finished
func (r *RunRepo) Finish(ctx context.Context, report *model.Report) error {
	query := `
		UPDATE runs
		SET status = ?, finished_at = ?, readings = ?, switches = ?
		WHERE run_id = ?
	`
	if err := r.client.Exec(ctx, query,
		model.RunFinished, report.FinishedAt, report.Readings, report.Switches, report.RunID,
	); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// Abort marks a run that ended without a report
func (r *RunRepo) Abort(ctx context.Context, runID string, readings int, at time.Time) error {
	query := `
		UPDATE runs
		SET status = ?, finished_at = ?, readings = ?
		WHERE run_id = ? AND status = ?
	`
	if err := r.client.Exec(ctx, query, model.RunAborted, at, readings, runID, model.RunRunning); err != nil {
		return fmt.Errorf("failed to abort run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by ID
func (r *RunRepo) GetByID(ctx context.Context, runID string) (*model.Run, error) {
	query := `
		SELECT run_id, period, source, status, started_at, finished_at, readings, switches
		FROM runs
		WHERE run_id = ?
	`

	run, err := scanRun(r.client.QueryRow(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first
func (r *RunRepo) List(ctx context.Context, limit int) ([]*model.Run, error) {
	query := `
		SELECT run_id, period, source, status, started_at, finished_at, readings, switches
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.client.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var (
		run      model.Run
		source   sql.NullString
		finished sql.NullTime
	)
	if err := row.Scan(&run.RunID, &run.Period, &source, &run.Status, &run.StartedAt,
		&finished, &run.Readings, &run.Switches); err != nil {
		return nil, err
	}
	run.Source = source.String
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}
