package trend

import (
	"github.com/tunogya/groundhog/pkg/feature"
)

// Detector tracks the sign of the percent change across a stream and counts
// every time it flips. The sign is compared with the last recorded sign, not
// with the previous raw value, so consecutive steps of the same sign never
// trigger twice. Zero counts as non-negative.
type Detector struct {
	nonNegative bool
	flips       int
	history     []int
}

// NewDetector creates a detector starting from a non-negative trend
func NewDetector() *Detector {
	return &Detector{nonNegative: true}
}

// Evaluate records the percent change of the current history and reports
// whether the trend switched on this step
func (d *Detector) Evaluate(values []float64, period int) bool {
	change := feature.PercentChange(period, values)
	if !change.Valid {
		return false
	}

	d.history = append(d.history, int(change.Value))

	sign := d.history[len(d.history)-1] >= 0
	if sign == d.nonNegative {
		return false
	}

	d.nonNegative = sign
	d.flips++
	return true
}

// Flips returns the number of switches observed so far
func (d *Detector) Flips() int {
	return d.flips
}

// NonNegative returns the current trend sign
func (d *Detector) NonNegative() bool {
	return d.nonNegative
}

// History returns a copy of the recorded integer percent changes
func (d *Detector) History() []int {
	return append([]int(nil), d.history...)
}
