package duckdb

import (
	"context"
	"fmt"
)

// CreateRunsTable creates the runs table, one row per engine session
const CreateRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    run_id VARCHAR PRIMARY KEY,
    period INTEGER NOT NULL,
    source VARCHAR,
    status VARCHAR NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    readings INTEGER NOT NULL DEFAULT 0,
    switches INTEGER NOT NULL DEFAULT 0
);
`

// CreateStepsTable creates the steps fact table.
// Metric columns are NULL while the window is warming up.
const CreateStepsTable = `
CREATE TABLE IF NOT EXISTS steps (
    run_id VARCHAR NOT NULL,
    idx INTEGER NOT NULL,
    value DOUBLE NOT NULL,
    received_at TIMESTAMP NOT NULL,
    gain DOUBLE,
    pct_change DOUBLE,
    stddev DOUBLE,
    switched BOOLEAN NOT NULL,
    score DOUBLE,
    PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_steps_switched ON steps(run_id, switched);
`

// CreateAnomaliesTable creates the ranked anomalies of finished runs
const CreateAnomaliesTable = `
CREATE TABLE IF NOT EXISTS anomalies (
    run_id VARCHAR NOT NULL,
    anomaly_rank INTEGER NOT NULL,
    value DOUBLE NOT NULL,
    PRIMARY KEY (run_id, anomaly_rank)
);
`

// InitializeSchema creates all required tables
func InitializeSchema(ctx context.Context, c *Client) error {
	schemas := []string{
		CreateRunsTable,
		CreateStepsTable,
		CreateAnomaliesTable,
	}

	for _, schema := range schemas {
		if err := c.Exec(ctx, schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropAllTables drops all tables (use with caution)
func DropAllTables(ctx context.Context, c *Client) error {
	tables := []string{"anomalies", "steps", "runs"}
	for _, table := range tables {
		if err := c.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
