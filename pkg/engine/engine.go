package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tunogya/groundhog/pkg/feature"
	"github.com/tunogya/groundhog/pkg/model"
	"github.com/tunogya/groundhog/pkg/rank"
	"github.com/tunogya/groundhog/pkg/trend"
	"github.com/tunogya/groundhog/pkg/window"
)

// Engine owns all state of one stream: the history, the switch detector and
// the normalization series. It is not safe for concurrent use; one caller
// pushes readings and finalizes.
type Engine struct {
	runID  string
	period int

	history    *window.History
	detector   *trend.Detector
	normalizer *feature.Normalizer
	ranker     *rank.Ranker

	last model.Snapshot
}

// Option customises an Engine
type Option func(*Engine)

// WithRunID sets the run identifier instead of a generated one
func WithRunID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.runID = id
		}
	}
}

// WithTopN sets how many anomalies the report holds
func WithTopN(n int) Option {
	return func(e *Engine) {
		e.ranker = rank.NewRanker(rank.Config{TopN: n})
	}
}

// New creates an engine for a positive period
func New(period int, opts ...Option) (*Engine, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: period must be a positive integer, got %d", model.ErrInvalidArgument, period)
	}

	e := &Engine{
		runID:      uuid.NewString(),
		period:     period,
		history:    window.NewHistory(),
		detector:   trend.NewDetector(),
		normalizer: feature.NewNormalizer(period),
		ranker:     rank.NewRanker(rank.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Push appends a reading and computes everything that depends on it
func (e *Engine) Push(value float64) model.Step {
	reading := e.history.Push(value)
	values := e.history.Values()

	snapshot := feature.Compute(e.period, values)
	switched := e.detector.Evaluate(values, e.period)
	score := e.normalizer.Step(values)

	e.last = snapshot

	return model.Step{
		RunID:    e.runID,
		Period:   e.period,
		Reading:  reading,
		Snapshot: snapshot,
		Switched: switched,
		Score:    score,
	}
}

// Finalize produces the end-of-stream report.
// It fails with ErrPrematureTermination when no metric was ever computable.
func (e *Engine) Finalize() (*model.Report, error) {
	if e.last.Empty() {
		return nil, fmt.Errorf("%w after %d readings with period %d",
			model.ErrPrematureTermination, e.history.Len(), e.period)
	}

	return &model.Report{
		RunID:      e.runID,
		Period:     e.period,
		Readings:   e.history.Len(),
		Switches:   e.detector.Flips(),
		Anomalies:  e.ranker.Rank(e.normalizer.Scores(), e.history.Values(), e.period),
		FinishedAt: time.Now(),
	}, nil
}

// RunID returns the identifier of the stream
func (e *Engine) RunID() string {
	return e.runID
}

// Period returns the window period
func (e *Engine) Period() int {
	return e.period
}

// Len returns the number of readings pushed so far
func (e *Engine) Len() int {
	return e.history.Len()
}

// Switches returns the number of trend switches so far
func (e *Engine) Switches() int {
	return e.detector.Flips()
}

// Scores returns the Bollinger positions computed so far
func (e *Engine) Scores() []float64 {
	return e.normalizer.Scores()
}
