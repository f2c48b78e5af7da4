package window

import (
	"testing"
	"time"

	"github.com/tunogya/groundhog/pkg/model"
)

func TestHistoryAppendOnly(t *testing.T) {
	h := NewHistory()
	if h.Last() != nil {
		t.Fatal("expected nil last reading on empty history")
	}

	for i, v := range []float64{27.7, 31.0, 32.7} {
		r := h.Push(v)
		if r.Index != i {
			t.Fatalf("reading %d got index %d", i, r.Index)
		}
	}

	if h.Len() != 3 {
		t.Fatalf("expected len 3, got %d", h.Len())
	}
	if last := h.Last(); last == nil || last.Value != 32.7 {
		t.Fatalf("unexpected last reading: %+v", last)
	}

	tail := h.Tail(2)
	if len(tail) != 2 || tail[0].Value != 31.0 || tail[1].Value != 32.7 {
		t.Fatalf("unexpected tail: %+v", tail)
	}

	// Tail is a copy, mutating it must not touch the history
	tail[0].Value = 0
	if r, _ := h.At(1); r.Value != 31.0 {
		t.Fatalf("history mutated through tail: %+v", r)
	}

	if got := h.Tail(10); len(got) != 3 {
		t.Fatalf("expected tail clamped to 3, got %d", len(got))
	}
	if _, ok := h.At(3); ok {
		t.Fatal("expected out of range At to fail")
	}
}

func TestHistoryAppendKeepsReadings(t *testing.T) {
	h := NewHistory()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := h.Append(model.Reading{Index: 0, Value: 1.5, ReceivedAt: at}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := h.Append(model.Reading{Index: 2, Value: 2}); err == nil {
		t.Fatal("expected an error for a skipped index")
	}
	if r, _ := h.At(0); !r.ReceivedAt.Equal(at) {
		t.Errorf("timestamp not kept: %v", r.ReceivedAt)
	}
	if h.Len() != 1 {
		t.Errorf("len = %d, want 1", h.Len())
	}
}

func TestBuilderEmitsAfterWarmup(t *testing.T) {
	h := NewHistory()
	b := NewBuilder(DefaultConfig("run-1", 3))

	var emitted int
	for i := 0; i < 6; i++ {
		h.Push(float64(i))
		w, ok := b.Next(h)
		if i < 3 {
			if ok {
				t.Fatalf("window emitted before warmup at reading %d", i)
			}
			continue
		}
		if !ok {
			t.Fatalf("expected window at reading %d", i)
		}
		emitted++
		if w.Length != 4 || !w.IsComplete() {
			t.Fatalf("unexpected window shape: %+v", w)
		}
		if w.EndIndex != i || w.First().Value != float64(i-3) {
			t.Fatalf("window not trailing: end=%d first=%v", w.EndIndex, w.First().Value)
		}
	}

	if emitted != 3 {
		t.Errorf("expected 3 windows, got %d", emitted)
	}
}

func TestBuilderStepSize(t *testing.T) {
	h := NewHistory()
	b := NewBuilder(Config{W: 2, S: 2, RunID: "run-2"})

	var ends []int
	for i := 0; i < 7; i++ {
		h.Push(float64(i))
		if w, ok := b.Next(h); ok {
			ends = append(ends, w.EndIndex)
		}
	}

	want := []int{1, 3, 5}
	if len(ends) != len(want) {
		t.Fatalf("window ends = %v, want %v", ends, want)
	}
	for i := range want {
		if ends[i] != want[i] {
			t.Fatalf("window ends = %v, want %v", ends, want)
		}
	}
}
