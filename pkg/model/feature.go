package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NotANumber is the display form of a measurement that could not be computed
const NotANumber = "nan"

// Measurement is a metric value that may be missing because the window does
// not hold enough readings yet
type Measurement struct {
	Value float64
	Valid bool
}

// Insufficient is the measurement returned while the window is warming up
var Insufficient = Measurement{}

// Measured wraps a computed value
func Measured(v float64) Measurement {
	return Measurement{Value: v, Valid: true}
}

// Format renders the value with a fixed number of decimals, or "nan"
func (m Measurement) Format(places int) string {
	if !m.Valid {
		return NotANumber
	}
	return strconv.FormatFloat(m.Value, 'f', places, 64)
}

// MarshalJSON encodes an insufficient measurement as null
func (m Measurement) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON decodes null as an insufficient measurement
func (m *Measurement) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Insufficient
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Measured(v)
	return nil
}

// Ptr returns nil for an insufficient measurement, for nullable columns
func (m Measurement) Ptr() *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}

// Snapshot holds the three display metrics computed for one step
type Snapshot struct {
	Gain   Measurement `json:"gain"`   // average gain, 2 decimals
	Change Measurement `json:"change"` // percent change, 0 decimals
	StdDev Measurement `json:"stddev"` // standard deviation, 2 decimals
}

// Empty returns true when none of the metrics could be computed
func (s Snapshot) Empty() bool {
	return !s.Gain.Valid && !s.Change.Valid && !s.StdDev.Valid
}

// Step is the outcome of pushing one reading through the engine
type Step struct {
	RunID    string      `json:"run_id"`
	Period   int         `json:"period"`
	Reading  Reading     `json:"reading"`
	Snapshot Snapshot    `json:"snapshot"`
	Switched bool        `json:"switched"`
	Score    Measurement `json:"score"` // Bollinger position, absent when degenerate
}

// ShapeVector is a fixed-length float32 vector for similarity search
type ShapeVector []float32

// Default embedding dimension for reading windows
const VectorDim32 = 32

// NewShapeVector creates a new ShapeVector with the specified dimension
func NewShapeVector(dim int) ShapeVector {
	return make(ShapeVector, dim)
}

// Dim returns the dimension of the shape vector
func (sv ShapeVector) Dim() int {
	return len(sv)
}

// FromFloat64 creates a ShapeVector from float64 slice
func FromFloat64(data []float64) ShapeVector {
	result := make(ShapeVector, len(data))
	for i, v := range data {
		result[i] = float32(v)
	}
	return result
}

// FormatFloat prints v the way a float is printed inside a list literal:
// shortest round-trip digits, always with a fractional part or an exponent.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	if v != 0 {
		sci := strconv.FormatFloat(v, 'e', -1, 64)
		exp, _ := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
		if exp < -4 || exp >= 16 {
			return sci
		}
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// FormatFloats prints a list of floats as "[a, b, c]"
func FormatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = FormatFloat(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
