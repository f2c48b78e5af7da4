package window

import (
	"github.com/tunogya/groundhog/pkg/model"
)

// Builder cuts trailing windows out of a history as readings arrive
type Builder struct {
	W              int // Window length (number of readings)
	S              int // Step size (readings between window outputs)
	Warmup         int // Minimum readings before first window output
	FeatureVersion int // Version for window ID generation
	RunID          string

	stepCount int  // Counter for step-based output
	warmedUp  bool // Whether warmup period is complete
}

// Config holds configuration for window builder
type Config struct {
	W              int    // Window length
	S              int    // Step size
	Warmup         int    // Warmup period (defaults to W if 0)
	FeatureVersion int    // Feature version (defaults to 1)
	RunID          string // Run the windows belong to
}

// DefaultConfig returns the window shape the percent change looks at:
// the current reading plus the period readings before it
func DefaultConfig(runID string, period int) Config {
	return Config{
		W:              period + 1,
		S:              1, // Output every reading
		Warmup:         0, // Will default to W
		FeatureVersion: 1,
		RunID:          runID,
	}
}

// NewBuilder creates a new window builder with the given configuration
func NewBuilder(cfg Config) *Builder {
	warmup := cfg.Warmup
	if warmup <= 0 {
		warmup = cfg.W
	}
	step := cfg.S
	if step <= 0 {
		step = 1
	}
	version := cfg.FeatureVersion
	if version <= 0 {
		version = 1
	}

	return &Builder{
		W:              cfg.W,
		S:              step,
		Warmup:         warmup,
		FeatureVersion: version,
		RunID:          cfg.RunID,
	}
}

// Next is called after a reading was pushed to h and potentially produces a window
// Returns a window if one should be emitted, and a bool indicating if a window was produced
func (b *Builder) Next(h *History) (*model.Window, bool) {
	b.stepCount++

	// Check if warmup is complete
	if !b.warmedUp && h.Len() >= b.Warmup {
		b.warmedUp = true
		b.stepCount = b.S // Force first output after warmup
	}

	if !b.warmedUp || h.Len() < b.W {
		return nil, false
	}

	// Check step condition
	if b.stepCount < b.S {
		return nil, false
	}

	// Reset step counter and emit window
	b.stepCount = 0

	return model.NewWindow(b.RunID, b.FeatureVersion, h.Tail(b.W)), true
}

// Reset clears the builder state
func (b *Builder) Reset() {
	b.stepCount = 0
	b.warmedUp = false
}

// IsWarmedUp returns true if the warmup period is complete
func (b *Builder) IsWarmedUp() bool {
	return b.warmedUp
}
