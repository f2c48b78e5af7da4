package feature

import (
	"github.com/montanaflynn/stats"

	"github.com/tunogya/groundhog/pkg/model"
)

// Bollinger band width in standard deviations
const bandWidth = 2.0

// WindowedAverage is the plain mean of the trailing period readings,
// rounded to 2 decimals. Unlike AverageGain it is valid as soon as period
// readings are available.
func WindowedAverage(period int, values []float64) model.Measurement {
	window, ok := trailing(values, period, 0)
	if !ok {
		return model.Insufficient
	}

	mean, err := stats.Mean(window)
	if err != nil {
		return model.Insufficient
	}
	return model.Measured(Round(mean, 2))
}

// WindowedStdDev feeds the band width; it shares the display formula
func WindowedStdDev(period int, values []float64) model.Measurement {
	return StdDeviation(period, values)
}

// BollingerPosition locates last between the lower (mean - 2σ) and upper
// (mean + 2σ) bands built from the latest entries of the series.
// 0 is the lower band, 1 the upper band. The position is absent when either
// series is empty or the bands collapse.
func BollingerPosition(last float64, averages, deviations []float64) model.Measurement {
	if len(averages) == 0 || len(deviations) == 0 {
		return model.Insufficient
	}

	avg := averages[len(averages)-1]
	sd := deviations[len(deviations)-1]
	upper := avg + bandWidth*sd
	lower := avg - bandWidth*sd
	if upper == lower {
		return model.Insufficient
	}

	return model.Measured((last - lower) / (upper - lower))
}

// Normalizer keeps the running band series and the Bollinger position of
// every step where one could be computed
type Normalizer struct {
	Period int

	averages   []float64
	deviations []float64
	scores     []float64
}

// NewNormalizer creates a normalizer for the given period
func NewNormalizer(period int) *Normalizer {
	return &Normalizer{Period: period}
}

// Step updates the series with the current history and returns the position
// of its last reading. Warm-up steps are dropped from the series instead of
// being stored as placeholders.
func (n *Normalizer) Step(values []float64) model.Measurement {
	if len(values) == 0 {
		return model.Insufficient
	}

	if avg := WindowedAverage(n.Period, values); avg.Valid {
		n.averages = append(n.averages, avg.Value)
	}
	if sd := WindowedStdDev(n.Period, values); sd.Valid {
		n.deviations = append(n.deviations, sd.Value)
	}

	pos := BollingerPosition(values[len(values)-1], n.averages, n.deviations)
	if pos.Valid {
		n.scores = append(n.scores, pos.Value)
	}
	return pos
}

// Scores returns a copy of the Bollinger positions computed so far
func (n *Normalizer) Scores() []float64 {
	return append([]float64(nil), n.scores...)
}

// Averages returns a copy of the moving average series
func (n *Normalizer) Averages() []float64 {
	return append([]float64(nil), n.averages...)
}

// Deviations returns a copy of the standard deviation series
func (n *Normalizer) Deviations() []float64 {
	return append([]float64(nil), n.deviations...)
}

// MinMaxNormalize scales values to [0, 1] range
// A flat series maps to the middle of the range
func MinMaxNormalize(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	min, err := stats.Min(values)
	if err != nil {
		return nil
	}
	max, err := stats.Max(values)
	if err != nil {
		return nil
	}

	result := make([]float64, len(values))
	rangeVal := max - min
	for i, v := range values {
		if rangeVal == 0 {
			result[i] = 0.5
			continue
		}
		result[i] = (v - min) / rangeVal
	}

	return result
}
