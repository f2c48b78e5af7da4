package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Window represents the trailing readings of a run ending at EndIndex
type Window struct {
	WindowID       string    `json:"window_id"`
	RunID          string    `json:"run_id"`
	EndIndex       int       `json:"end_index"`       // history index of the last reading
	Length         int       `json:"length"`          // number of readings
	FeatureVersion int       `json:"feature_version"` // version for idempotency
	Readings       []Reading `json:"readings"`
	CreatedAt      time.Time `json:"created_at"`
}

// GenerateWindowID creates a deterministic window ID based on key parameters
// Format: hash(run|end_index|length|feature_version)
// Re-indexing the same run always produces the same IDs
func GenerateWindowID(runID string, endIndex, length, featureVersion int) string {
	data := fmt.Sprintf("%s|%d|%d|%d",
		runID,
		endIndex,
		length,
		featureVersion,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16]) // use first 16 bytes (32 hex chars)
}

// NewWindow creates a new Window with generated ID
func NewWindow(runID string, featureVersion int, readings []Reading) *Window {
	endIndex := -1
	if len(readings) > 0 {
		endIndex = readings[len(readings)-1].Index
	}
	return &Window{
		WindowID:       GenerateWindowID(runID, endIndex, len(readings), featureVersion),
		RunID:          runID,
		EndIndex:       endIndex,
		Length:         len(readings),
		FeatureVersion: featureVersion,
		Readings:       readings,
		CreatedAt:      time.Now(),
	}
}

// IsComplete returns true if the window has the expected number of readings
func (w *Window) IsComplete() bool {
	return len(w.Readings) == w.Length && w.Length > 0
}

// Values returns the raw values of the window in arrival order
func (w *Window) Values() []float64 {
	return Values(w.Readings)
}

// First returns the oldest reading in the window
func (w *Window) First() *Reading {
	if len(w.Readings) == 0 {
		return nil
	}
	return &w.Readings[0]
}

// Last returns the most recent reading in the window
func (w *Window) Last() *Reading {
	if len(w.Readings) == 0 {
		return nil
	}
	return &w.Readings[len(w.Readings)-1]
}
