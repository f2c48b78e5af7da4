package model

import "time"

// Reading is a single temperature value as it arrived on the stream
type Reading struct {
	Index      int       `json:"index"`       // position in the history buffer (0-based)
	Value      float64   `json:"value"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewReading creates a reading stamped with the current time
func NewReading(index int, value float64) Reading {
	return Reading{
		Index:      index,
		Value:      value,
		ReceivedAt: time.Now(),
	}
}

// Values extracts the raw values of a slice of readings
func Values(readings []Reading) []float64 {
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Value
	}
	return values
}
