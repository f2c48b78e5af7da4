package feature

import (
	"math"
	"testing"

	"github.com/tunogya/groundhog/pkg/model"
)

func TestWindowedAverage(t *testing.T) {
	if got := WindowedAverage(3, []float64{1, 2}); got.Valid {
		t.Errorf("expected insufficient, got %+v", got)
	}
	// Valid one reading earlier than AverageGain
	if got := WindowedAverage(3, []float64{1, 2, 4}); got != model.Measured(2.33) {
		t.Errorf("WindowedAverage = %+v, want 2.33", got)
	}
	// Raw mean, falling readings are not clamped
	if got := WindowedAverage(2, []float64{9, 4, 2}); got != model.Measured(3) {
		t.Errorf("WindowedAverage = %+v, want 3", got)
	}
}

func TestBollingerPosition(t *testing.T) {
	tests := []struct {
		name       string
		last       float64
		averages   []float64
		deviations []float64
		want       model.Measurement
	}{
		{"empty averages", 10, nil, []float64{1}, model.Insufficient},
		{"empty deviations", 10, []float64{10}, nil, model.Insufficient},
		{"collapsed band", 10, []float64{10}, []float64{0}, model.Insufficient},
		{"mid band", 10, []float64{10}, []float64{1}, model.Measured(0.5)},
		{"upper band", 12, []float64{10}, []float64{1}, model.Measured(1)},
		{"lower band", 8, []float64{10}, []float64{1}, model.Measured(0)},
		{"uses latest entries", 20, []float64{10, 20}, []float64{1, 2}, model.Measured(0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BollingerPosition(tt.last, tt.averages, tt.deviations)
			if got.Valid != tt.want.Valid || math.Abs(got.Value-tt.want.Value) > 1e-12 {
				t.Errorf("BollingerPosition = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizerDropsWarmupAndDegenerateSteps(t *testing.T) {
	n := NewNormalizer(3)
	values := []float64{5, 5, 5, 8}

	var positions []model.Measurement
	for i := 1; i <= len(values); i++ {
		positions = append(positions, n.Step(values[:i]))
	}

	for i := 0; i < 3; i++ {
		if positions[i].Valid {
			t.Fatalf("step %d: expected no position, got %+v", i, positions[i])
		}
	}
	if !positions[3].Valid {
		t.Fatalf("expected a position at the last step")
	}

	if got := len(n.Averages()); got != 2 {
		t.Errorf("expected 2 averages (warm-up dropped), got %d", got)
	}
	if got := len(n.Deviations()); got != 2 {
		t.Errorf("expected 2 deviations, got %d", got)
	}
	if got := len(n.Scores()); got != 1 {
		t.Errorf("expected 1 score (flat window skipped), got %d", got)
	}
}

func TestMinMaxNormalize(t *testing.T) {
	got := MinMaxNormalize([]float64{2, 4, 6})
	want := []float64{0, 0.5, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MinMaxNormalize = %v, want %v", got, want)
		}
	}

	flat := MinMaxNormalize([]float64{3, 3})
	if flat[0] != 0.5 || flat[1] != 0.5 {
		t.Errorf("flat series = %v, want [0.5 0.5]", flat)
	}

	if MinMaxNormalize(nil) != nil {
		t.Error("expected nil for empty input")
	}
}
