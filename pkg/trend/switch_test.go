package trend

import "testing"

var risingThenFalling = []float64{
	27.7, 31.0, 32.7, 34.7, 35.9, 37.4, 38.2, 39.5, 40.3, 42.2,
	41.3, 40.4, 39.8, 38.7, 36.5,
}

func TestDetectorSingleSwitchOnFullSeries(t *testing.T) {
	d := NewDetector()
	if !d.Evaluate(risingThenFalling, 7) {
		t.Fatal("expected a switch when the first recorded change is negative")
	}
	if d.Flips() != 1 || d.NonNegative() {
		t.Fatalf("flips=%d nonNegative=%v", d.Flips(), d.NonNegative())
	}
}

func TestDetectorStreaming(t *testing.T) {
	d := NewDetector()

	var switchedAt []int
	for n := 1; n <= len(risingThenFalling); n++ {
		if d.Evaluate(risingThenFalling[:n], 7) {
			switchedAt = append(switchedAt, n)
		}
	}

	if len(switchedAt) != 1 || switchedAt[0] != 15 {
		t.Fatalf("switches at %v, want exactly one at reading 15", switchedAt)
	}
	if d.Flips() != 1 {
		t.Fatalf("expected 1 flip, got %d", d.Flips())
	}
	if got := len(d.History()); got != 8 {
		t.Fatalf("expected 8 recorded changes, got %d", got)
	}
}

func TestDetectorWarmupIsNoop(t *testing.T) {
	d := NewDetector()
	if d.Evaluate([]float64{1, 2, 3}, 3) {
		t.Fatal("unexpected switch during warm-up")
	}
	if len(d.History()) != 0 {
		t.Fatal("warm-up step should not be recorded")
	}
}

func TestDetectorCountsOnlyTransitions(t *testing.T) {
	// period 1: changes are -50, -50, +100, +0, -50
	values := []float64{4, 2, 1, 2, 2, 1}
	d := NewDetector()

	var got []bool
	for n := 2; n <= len(values); n++ {
		got = append(got, d.Evaluate(values[:n], 1))
	}

	want := []bool{true, false, true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("switch pattern = %v, want %v", got, want)
		}
	}
	if d.Flips() != 3 {
		t.Errorf("expected 3 flips, got %d", d.Flips())
	}
}

func TestDetectorZeroIsNonNegative(t *testing.T) {
	d := NewDetector()
	// baseline 0 and current 0: change is exactly zero
	if d.Evaluate([]float64{0, 0}, 1) {
		t.Fatal("zero change should not flip a non-negative trend")
	}
}
