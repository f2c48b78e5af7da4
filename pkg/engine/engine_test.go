package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tunogya/groundhog/pkg/model"
)

var temperatures = []float64{
	27.7, 31.0, 32.7, 34.7, 35.9, 37.4, 38.2, 39.5, 40.3, 42.2,
	41.3, 40.4, 39.8, 38.7, 36.5,
}

func push(t *testing.T, e *Engine, values []float64) []model.Step {
	t.Helper()
	steps := make([]model.Step, 0, len(values))
	for _, v := range values {
		steps = append(steps, e.Push(v))
	}
	return steps
}

func TestNewRejectsNonPositivePeriod(t *testing.T) {
	for _, period := range []int{0, -3} {
		if _, err := New(period); !errors.Is(err, model.ErrInvalidArgument) {
			t.Errorf("New(%d) error = %v, want ErrInvalidArgument", period, err)
		}
	}
}

func TestPushComputesSnapshots(t *testing.T) {
	e, err := New(7)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	steps := push(t, e, temperatures[:11])

	tests := []struct {
		reading int
		g, s    string
	}{
		{6, "nan", "nan"},
		{7, "nan", "3.46"},
		{9, "1.33", "2.50"},
		{10, "1.36", "2.40"},
		{11, "1.07", "2.06"},
	}

	for _, tt := range tests {
		step := steps[tt.reading-1]
		if step.Snapshot.Gain.Format(2) != tt.g {
			t.Errorf("reading %d: g = %s, want %s", tt.reading, step.Snapshot.Gain.Format(2), tt.g)
		}
		if step.Snapshot.StdDev.Format(2) != tt.s {
			t.Errorf("reading %d: s = %s, want %s", tt.reading, step.Snapshot.StdDev.Format(2), tt.s)
		}
	}

	if got := steps[9].Snapshot.Change.Format(0); got != "29" {
		t.Errorf("reading 10: r = %s, want 29", got)
	}
	if steps[0].Reading.Index != 0 || steps[10].Reading.Index != 10 {
		t.Errorf("unexpected reading indexes %d, %d", steps[0].Reading.Index, steps[10].Reading.Index)
	}
	for _, step := range steps {
		if step.RunID != e.RunID() || step.Period != 7 {
			t.Fatalf("step carries run %q period %d", step.RunID, step.Period)
		}
	}
}

func TestSingleSwitchOnRisingThenFallingSeries(t *testing.T) {
	e, err := New(7, WithRunID("run-15"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	steps := push(t, e, temperatures)

	var switched []int
	for _, step := range steps {
		if step.Switched {
			switched = append(switched, step.Reading.Index+1)
		}
	}
	if !reflect.DeepEqual(switched, []int{15}) {
		t.Fatalf("switches at readings %v, want [15]", switched)
	}

	report, err := e.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if report.RunID != "run-15" || report.Switches != 1 || report.Readings != 15 || report.Period != 7 {
		t.Fatalf("unexpected report %+v", report)
	}
	if want := []float64{36.5, 42.2, 38.7, 39.5, 40.3}; !reflect.DeepEqual(report.Anomalies, want) {
		t.Fatalf("anomalies = %v, want %v", report.Anomalies, want)
	}
}

func TestFinalizeWithoutReadings(t *testing.T) {
	e, err := New(7)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Finalize(); !errors.Is(err, model.ErrPrematureTermination) {
		t.Fatalf("Finalize error = %v, want ErrPrematureTermination", err)
	}
}

func TestFinalizeBeforeFirstMetric(t *testing.T) {
	e, _ := New(7)
	push(t, e, temperatures[:6])
	if _, err := e.Finalize(); !errors.Is(err, model.ErrPrematureTermination) {
		t.Fatalf("Finalize error = %v, want ErrPrematureTermination", err)
	}

	e.Push(temperatures[6])
	if _, err := e.Finalize(); err != nil {
		t.Fatalf("Finalize after a standard deviation is available: %v", err)
	}
}

func TestFlatBandsFallBackToFirstReadings(t *testing.T) {
	// A period of one always has zero deviation, so no position is ever computed
	e, _ := New(1)
	steps := push(t, e, []float64{3, 1, 4, 1, 5, 9})
	for _, step := range steps {
		if step.Score.Valid {
			t.Fatalf("reading %d has a score %v", step.Reading.Index, step.Score.Value)
		}
	}

	report, err := e.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if want := []float64{3, 1, 4, 1, 5}; !reflect.DeepEqual(report.Anomalies, want) {
		t.Fatalf("anomalies = %v, want %v", report.Anomalies, want)
	}
}

func TestWithTopN(t *testing.T) {
	e, _ := New(1, WithTopN(2))
	push(t, e, []float64{3, 1, 4})
	report, err := e.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(report.Anomalies) != 2 {
		t.Fatalf("expected 2 anomalies, got %v", report.Anomalies)
	}
}
