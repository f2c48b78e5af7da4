package duckdb

import (
	"context"
	"fmt"

	"github.com/tunogya/groundhog/pkg/model"
)

// AnomalyRepo handles the ranked anomalies of a run
type AnomalyRepo struct {
	client *Client
}

// NewAnomalyRepo creates a new anomaly repository
func NewAnomalyRepo(client *Client) *AnomalyRepo {
	return &AnomalyRepo{client: client}
}

// Replace stores the anomalies of a report, most anomalous at rank 1
func (r *AnomalyRepo) Replace(ctx context.Context, report *model.Report) error {
	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, v := range report.Anomalies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO anomalies (run_id, anomaly_rank, value) VALUES (?, ?, ?)
			ON CONFLICT (run_id, anomaly_rank) DO UPDATE SET value = EXCLUDED.value
		`, report.RunID, i+1, v); err != nil {
			return fmt.Errorf("failed to insert anomaly: %w", err)
		}
	}

	// a shorter report leaves no stale ranks behind
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM anomalies WHERE run_id = ? AND anomaly_rank > ?",
		report.RunID, len(report.Anomalies),
	); err != nil {
		return fmt.Errorf("failed to clear anomalies: %w", err)
	}

	return tx.Commit()
}

// GetByRun returns the anomalies of a run, most anomalous first
func (r *AnomalyRepo) GetByRun(ctx context.Context, runID string) ([]float64, error) {
	rows, err := r.client.Query(ctx,
		"SELECT value FROM anomalies WHERE run_id = ? ORDER BY anomaly_rank ASC", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
