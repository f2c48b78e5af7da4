// Package pipeline drives an engine from a source and fans its output out to sinks
package pipeline

import (
	"context"
	"fmt"

	"github.com/tunogya/groundhog/pkg/common"
	"github.com/tunogya/groundhog/pkg/data"
	"github.com/tunogya/groundhog/pkg/engine"
	"github.com/tunogya/groundhog/pkg/model"
)

// Sink receives every step and the final report of a run
type Sink interface {
	WriteStep(ctx context.Context, step model.Step) error
	WriteReport(ctx context.Context, report *model.Report) error
}

// Flusher is implemented by sinks that buffer. Flush runs once the stream
// ends, whether or not a report was produced.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Runner pulls readings from Source until it terminates, then finalizes
type Runner struct {
	Source data.Source
	Engine *engine.Engine
	Sinks  []Sink
	Logger *common.Logger
}

// Run processes the whole stream. Sink failures are logged and do not stop
// the run; source failures and premature termination do.
func (r *Runner) Run(ctx context.Context) (*model.Report, error) {
	logger := r.Logger
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	logger.Info().
		Str("run_id", r.Engine.RunID()).
		Int("period", r.Engine.Period()).
		Int("sinks", len(r.Sinks)).
		Msg("run started")

	defer r.flush(ctx, logger)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		value, ok, err := r.Source.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read reading %d: %w", r.Engine.Len()+1, err)
		}
		if !ok {
			break
		}

		step := r.Engine.Push(value)
		for _, sink := range r.Sinks {
			if err := sink.WriteStep(ctx, step); err != nil {
				logger.Warn().
					Str("sink", fmt.Sprintf("%T", sink)).
					Int("index", step.Reading.Index).
					Str("error", err.Error()).
					Msg("sink failed to write step")
			}
		}
	}

	report, err := r.Engine.Finalize()
	if err != nil {
		return nil, err
	}

	for _, sink := range r.Sinks {
		if err := sink.WriteReport(ctx, report); err != nil {
			logger.Warn().
				Str("sink", fmt.Sprintf("%T", sink)).
				Str("error", err.Error()).
				Msg("sink failed to write report")
		}
	}

	logger.Info().
		Str("run_id", report.RunID).
		Int("readings", report.Readings).
		Int("switches", report.Switches).
		Msg("run finished")

	return report, nil
}

func (r *Runner) flush(ctx context.Context, logger *common.Logger) {
	for _, sink := range r.Sinks {
		f, ok := sink.(Flusher)
		if !ok {
			continue
		}
		// A cancelled run still gets its buffered rows written
		if err := f.Flush(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().
				Str("sink", fmt.Sprintf("%T", sink)).
				Str("error", err.Error()).
				Msg("sink failed to flush")
		}
	}
}
