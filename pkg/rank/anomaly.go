package rank

import (
	"math"
	"sort"

	"github.com/tunogya/groundhog/pkg/model"
)

// centre is the Bollinger position of a reading sitting on the moving average
const centre = 0.5

// Config holds configuration for anomaly ranking
type Config struct {
	TopN int // Number of readings to report
}

// DefaultConfig returns the default ranking configuration
func DefaultConfig() Config {
	return Config{TopN: model.DefaultTopN}
}

// Ranker picks the most anomalous readings of a run from their Bollinger positions
type Ranker struct {
	config Config
}

// NewRanker creates a new ranker with the given configuration
func NewRanker(config Config) *Ranker {
	if config.TopN <= 0 {
		config.TopN = model.DefaultTopN
	}
	return &Ranker{config: config}
}

// Rank returns up to TopN readings ordered from the most to the least
// anomalous. scores[i] is the position of values[i+period-1].
//
// Each selected distance is mapped back through the index of its first
// occurrence, so readings sharing the same distance all resolve to the
// earliest of them. Without any score the first TopN readings are returned.
func (r *Ranker) Rank(scores, values []float64, period int) []float64 {
	n := r.config.TopN

	if len(scores) == 0 {
		if len(values) < n {
			n = len(values)
		}
		return append([]float64(nil), values[:n]...)
	}

	distances := make([]float64, len(scores))
	for i, s := range scores {
		distances[i] = math.Abs(s - centre)
	}

	sorted := append([]float64(nil), distances...)
	sort.Float64s(sorted)
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}

	result := make([]float64, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		idx := firstIndex(distances, sorted[i]) + period - 1
		if idx < 0 || idx >= len(values) {
			continue
		}
		result = append(result, values[idx])
	}

	return result
}

// firstIndex returns the position of the first element equal to v
func firstIndex(values []float64, v float64) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
