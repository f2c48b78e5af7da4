package model

import "time"

// DefaultTopN is the number of anomalies reported at the end of a run
const DefaultTopN = 5

// Report is produced once, when the stream terminates
type Report struct {
	RunID      string    `json:"run_id"`
	Period     int       `json:"period"`
	Readings   int       `json:"readings"`
	Switches   int       `json:"switches"`
	Anomalies  []float64 `json:"anomalies"` // most anomalous first
	FinishedAt time.Time `json:"finished_at"`
}

// Run states
const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunAborted  = "aborted" // stream ended without a report
)

// Run describes one engine session, persisted alongside its steps
type Run struct {
	RunID      string    `json:"run_id"`
	Period     int       `json:"period"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Readings   int       `json:"readings"`
	Switches   int       `json:"switches"`
}
