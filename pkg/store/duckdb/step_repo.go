package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tunogya/groundhog/pkg/model"
)

// StepRepo handles step persistence
type StepRepo struct {
	client *Client
}

// NewStepRepo creates a new step repository
func NewStepRepo(client *Client) *StepRepo {
	return &StepRepo{client: client}
}

const insertStep = `
	INSERT INTO steps (run_id, idx, value, received_at, gain, pct_change, stddev, switched, score)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (run_id, idx) DO NOTHING
`

// InsertBatch inserts multiple steps in a transaction.
// Replayed steps are ignored so redelivered messages are harmless.
func (r *StepRepo) InsertBatch(ctx context.Context, steps []model.Step) error {
	if len(steps) == 0 {
		return nil
	}

	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertStep)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range steps {
		_, err := stmt.ExecContext(ctx,
			s.RunID, s.Reading.Index, s.Reading.Value, s.Reading.ReceivedAt,
			nullFloat(s.Snapshot.Gain), nullFloat(s.Snapshot.Change), nullFloat(s.Snapshot.StdDev),
			s.Switched, nullFloat(s.Score),
		)
		if err != nil {
			return fmt.Errorf("failed to insert step %d: %w", s.Reading.Index, err)
		}
	}

	return tx.Commit()
}

// GetByRun retrieves all steps of a run in arrival order
func (r *StepRepo) GetByRun(ctx context.Context, runID string) ([]model.Step, error) {
	return r.query(ctx, `
		SELECT run_id, idx, value, received_at, gain, pct_change, stddev, switched, score
		FROM steps
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
}

// GetRange retrieves the steps with from <= index <= to
func (r *StepRepo) GetRange(ctx context.Context, runID string, from, to int) ([]model.Step, error) {
	return r.query(ctx, `
		SELECT run_id, idx, value, received_at, gain, pct_change, stddev, switched, score
		FROM steps
		WHERE run_id = ? AND idx BETWEEN ? AND ?
		ORDER BY idx ASC
	`, runID, from, to)
}

// GetSwitches retrieves the steps where the trend switched
func (r *StepRepo) GetSwitches(ctx context.Context, runID string) ([]model.Step, error) {
	return r.query(ctx, `
		SELECT run_id, idx, value, received_at, gain, pct_change, stddev, switched, score
		FROM steps
		WHERE run_id = ? AND switched
		ORDER BY idx ASC
	`, runID)
}

// Count returns the number of steps stored for a run
func (r *StepRepo) Count(ctx context.Context, runID string) (int64, error) {
	var count int64
	err := r.client.QueryRow(ctx, "SELECT COUNT(*) FROM steps WHERE run_id = ?", runID).Scan(&count)
	return count, err
}

func (r *StepRepo) query(ctx context.Context, query string, args ...interface{}) ([]model.Step, error) {
	rows, err := r.client.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var steps []model.Step
	for rows.Next() {
		var (
			s                        model.Step
			gain, change, dev, score sql.NullFloat64
		)
		if err := rows.Scan(&s.RunID, &s.Reading.Index, &s.Reading.Value, &s.Reading.ReceivedAt,
			&gain, &change, &dev, &s.Switched, &score); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		s.Snapshot = model.Snapshot{
			Gain:   measurement(gain),
			Change: measurement(change),
			StdDev: measurement(dev),
		}
		s.Score = measurement(score)
		steps = append(steps, s)
	}

	return steps, rows.Err()
}

func nullFloat(m model.Measurement) sql.NullFloat64 {
	return sql.NullFloat64{Float64: m.Value, Valid: m.Valid}
}

func measurement(v sql.NullFloat64) model.Measurement {
	if !v.Valid {
		return model.Insufficient
	}
	return model.Measured(v.Float64)
}
