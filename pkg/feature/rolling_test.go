package feature

import (
	"math"
	"testing"

	"github.com/tunogya/groundhog/pkg/model"
)

var (
	series9  = []float64{27.7, 31.0, 32.7, 34.7, 35.9, 37.4, 38.2, 39.5, 40.3}
	series10 = append(append([]float64(nil), series9...), 42.2)
	series11 = append(append([]float64(nil), series10...), 41.3)
)

func TestAverageGain(t *testing.T) {
	tests := []struct {
		name   string
		period int
		values []float64
		want   model.Measurement
	}{
		{"too short", 7, []float64{27.7, 31.0, 32.7}, model.Insufficient},
		{"exactly period", 7, series9[:7], model.Insufficient},
		{"nine readings", 7, series9, model.Measured(1.33)},
		{"ten readings", 7, series10, model.Measured(1.36)},
		{"falling series has zero gain", 2, []float64{5, 4, 3, 2}, model.Measured(0)},
		{"zero period", 0, series9, model.Insufficient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageGain(tt.period, tt.values); got != tt.want {
				t.Errorf("AverageGain(%d) = %+v, want %+v", tt.period, got, tt.want)
			}
		})
	}
}

func TestAverageGainNeverNegative(t *testing.T) {
	values := []float64{10, -3, 8, -20, 15, 2, -7, 30, -40, 1}
	for period := 1; period < len(values); period++ {
		for n := period + 1; n <= len(values); n++ {
			got := AverageGain(period, values[:n])
			if !got.Valid || got.Value < 0 {
				t.Fatalf("AverageGain(%d, %v) = %+v", period, values[:n], got)
			}
		}
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name   string
		period int
		values []float64
		want   model.Measurement
	}{
		{"too short", 7, series9[:7], model.Insufficient},
		{"ten readings", 7, series10, model.Measured(29)},
		{"zero baseline divides by one", 1, []float64{0, 5}, model.Measured(500)},
		{"negative baseline rising", 1, []float64{-10, -5}, model.Measured(50)},
		{"negative baseline falling", 1, []float64{-10, -20}, model.Measured(-100)},
		{"positive baseline falling", 1, []float64{50, 25}, model.Measured(-50)},
		{"rounds to integer", 1, []float64{100, 100.4}, model.Measured(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PercentChange(tt.period, tt.values); got != tt.want {
				t.Errorf("PercentChange(%d) = %+v, want %+v", tt.period, got, tt.want)
			}
		})
	}
}

func TestStdDeviation(t *testing.T) {
	tests := []struct {
		name   string
		period int
		values []float64
		want   model.Measurement
	}{
		{"too short", 7, series9[:6], model.Insufficient},
		{"exactly period", 3, []float64{2, 4, 6}, model.Measured(1.63)},
		{"ten readings", 7, series10, model.Measured(2.40)},
		{"eleven readings", 7, series11, model.Measured(2.06)},
		{"flat window", 3, []float64{1, 1, 1}, model.Measured(0)},
		{"zero period", 0, series9, model.Insufficient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StdDeviation(tt.period, tt.values); got != tt.want {
				t.Errorf("StdDeviation(%d) = %+v, want %+v", tt.period, got, tt.want)
			}
		})
	}
}

func TestInsufficientUpToPeriod(t *testing.T) {
	for period := 1; period <= 8; period++ {
		for n := 0; n <= period; n++ {
			values := series11[:n]
			if got := AverageGain(period, values); got.Valid {
				t.Errorf("AverageGain(%d) with %d readings = %+v", period, n, got)
			}
			if n < period {
				if got := StdDeviation(period, values); got.Valid {
					t.Errorf("StdDeviation(%d) with %d readings = %+v", period, n, got)
				}
			}
		}
	}
}

func TestCompute(t *testing.T) {
	snap := Compute(7, series10)
	if snap.Gain.Format(2) != "1.36" || snap.Change.Format(0) != "29" || snap.StdDev.Format(2) != "2.40" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	if !Compute(7, series9[:3]).Empty() {
		t.Error("expected empty snapshot during warm-up")
	}
}

func TestRound(t *testing.T) {
	if got := Round(1.357142857, 2); got != 1.36 {
		t.Errorf("Round = %v, want 1.36", got)
	}
	if got := Round(-0.4, 0); got != 0 || !math.Signbit(got) {
		t.Errorf("Round(-0.4, 0) = %v, want -0", got)
	}
}
