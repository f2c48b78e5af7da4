package feature

import (
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/tunogya/groundhog/pkg/model"
)

// Rolling metrics over the trailing period of a history.
// Every function is pure and recomputes from the values it is given.

// AverageGain is the mean positive change between each of the trailing period
// readings and the reading just before it, rounded to 2 decimals.
// Needs at least period+1 readings.
func AverageGain(period int, values []float64) model.Measurement {
	newer, ok := trailing(values, period, 1)
	if !ok {
		return model.Insufficient
	}
	older := values[len(values)-period-1 : len(values)-1]

	gains := make([]float64, period)
	for i := range newer {
		if d := newer[i] - older[i]; d > 0 {
			gains[i] = d
		}
	}

	sum, err := stats.Sum(gains)
	if err != nil {
		return model.Insufficient
	}
	return model.Measured(Round(sum/float64(period), 2))
}

// PercentChange compares the last reading with the one period readings
// before it, as an integer percentage. A zero baseline divides by one and a
// negative baseline divides by its magnitude so the sign follows the change.
func PercentChange(period int, values []float64) model.Measurement {
	if _, ok := trailing(values, period, 1); !ok {
		return model.Insufficient
	}

	current := values[len(values)-1]
	window := values[len(values)-1-period]

	var change float64
	switch {
	case window == 0:
		change = (current - window) * 100
	case window < 0:
		change = (current - window) / -window * 100
	default:
		change = (current/window - 1) * 100
	}

	return model.Measured(Round(change, 0))
}

// StdDeviation is the population standard deviation of the trailing period
// readings, rounded to 2 decimals. Needs at least period readings.
func StdDeviation(period int, values []float64) model.Measurement {
	window, ok := trailing(values, period, 0)
	if !ok {
		return model.Insufficient
	}

	sd, err := stats.StandardDeviationPopulation(window)
	if err != nil {
		return model.Insufficient
	}
	return model.Measured(Round(sd, 2))
}

// Compute returns the three display metrics for the current history
func Compute(period int, values []float64) model.Snapshot {
	return model.Snapshot{
		Gain:   AverageGain(period, values),
		Change: PercentChange(period, values),
		StdDev: StdDeviation(period, values),
	}
}

// trailing returns the last period values when at least period+extra values
// are available
func trailing(values []float64, period, extra int) ([]float64, bool) {
	if period <= 0 || len(values) < period+extra {
		return nil, false
	}
	return values[len(values)-period:], true
}

// Round rounds v to places decimals using the same correctly rounded decimal
// conversion as the printed form, so a value and its display never disagree
func Round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
