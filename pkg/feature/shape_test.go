package feature

import (
	"testing"

	"github.com/tunogya/groundhog/pkg/model"
)

func readings(values ...float64) []model.Reading {
	out := make([]model.Reading, len(values))
	for i, v := range values {
		out[i] = model.Reading{Index: i, Value: v}
	}
	return out
}

func TestExtractShapeVector(t *testing.T) {
	e := NewExtractor(1, 8)
	w := model.NewWindow("run-1", 1, readings(10, 12, 11, 14))

	vec, err := e.Extract(w)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if vec.Dim() != 8 {
		t.Fatalf("expected dim 8, got %d", vec.Dim())
	}

	// levels: (v-10)/4
	wantLevels := []float32{0, 0.5, 0.25, 1}
	for i, want := range wantLevels {
		if vec[i] != want {
			t.Fatalf("level %d = %v, want %v (vector %v)", i, vec[i], want, vec)
		}
	}
	// deltas 2, -1, 3 normalised over [-1, 3]
	wantDeltas := []float32{0.75, 0, 1, 0}
	for i, want := range wantDeltas {
		if vec[4+i] != want {
			t.Fatalf("delta %d = %v, want %v (vector %v)", i, vec[4+i], want, vec)
		}
	}
}

func TestExtractDownsamplesLongWindows(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = float64(i)
	}
	vec, err := NewExtractor(1, 8).Extract(model.NewWindow("run-1", 1, readings(values...)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if vec.Dim() != 8 {
		t.Fatalf("expected dim 8, got %d", vec.Dim())
	}
	if vec[0] >= vec[3] {
		t.Errorf("expected rising level curve, got %v", vec[:4])
	}
}

func TestExtractRejectsEmptyWindow(t *testing.T) {
	if _, err := NewExtractor(1, 8).Extract(model.NewWindow("run-1", 1, nil)); err == nil {
		t.Fatal("expected error for empty window")
	}
}
