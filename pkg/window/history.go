package window

import (
	"fmt"
	"sync"

	"github.com/tunogya/groundhog/pkg/model"
)

// History is the append-only log of readings received so far.
// Readings are never mutated or removed; windows are trailing slices of it.
type History struct {
	readings []model.Reading
	mu       sync.RWMutex
}

// NewHistory creates an empty history
func NewHistory() *History {
	return &History{
		readings: make([]model.Reading, 0, 64),
	}
}

// Push appends a value and returns the stored reading
func (h *History) Push(value float64) model.Reading {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := model.NewReading(len(h.readings), value)
	h.readings = append(h.readings, r)
	return r
}

// Append stores a reading produced elsewhere, keeping its timestamp.
// The reading must carry the next index.
func (h *History) Append(r model.Reading) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r.Index != len(h.readings) {
		return fmt.Errorf("reading %d out of order, expected %d", r.Index, len(h.readings))
	}
	h.readings = append(h.readings, r)
	return nil
}

// Len returns the number of readings received
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.readings)
}

// At returns the reading at index i
func (h *History) At(i int) (model.Reading, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.readings) {
		return model.Reading{}, false
	}
	return h.readings[i], true
}

// Last returns the most recent reading
func (h *History) Last() *model.Reading {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.readings) == 0 {
		return nil
	}
	r := h.readings[len(h.readings)-1]
	return &r
}

// Tail returns a copy of the trailing n readings (fewer if not available)
func (h *History) Tail(n int) []model.Reading {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > len(h.readings) {
		n = len(h.readings)
	}
	if n <= 0 {
		return nil
	}
	result := make([]model.Reading, n)
	copy(result, h.readings[len(h.readings)-n:])
	return result
}

// Values returns a copy of all values in arrival order
func (h *History) Values() []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return model.Values(h.readings)
}
