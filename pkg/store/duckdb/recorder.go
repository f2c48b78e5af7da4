package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/tunogya/groundhog/pkg/model"
)

// Recorder is a pipeline sink persisting a run, its steps and its report.
// Steps are buffered and written in batches.
type Recorder struct {
	runs      *RunRepo
	steps     *StepRepo
	anomalies *AnomalyRepo

	source    string
	batchSize int

	started bool
	runID   string
	count   int
	pending []model.Step
}

// NewRecorder creates a recorder on an initialized client
func NewRecorder(client *Client, source string, batchSize int) *Recorder {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Recorder{
		runs:      NewRunRepo(client),
		steps:     NewStepRepo(client),
		anomalies: NewAnomalyRepo(client),
		source:    source,
		batchSize: batchSize,
	}
}

// WriteStep buffers a step, registering the run on the first one
func (r *Recorder) WriteStep(ctx context.Context, step model.Step) error {
	if !r.started {
		run := &model.Run{
			RunID:     step.RunID,
			Period:    step.Period,
			Source:    r.source,
			StartedAt: step.Reading.ReceivedAt,
		}
		if err := r.runs.Start(ctx, run); err != nil {
			return err
		}
		r.started = true
		r.runID = step.RunID
	}

	r.pending = append(r.pending, step)
	r.count++
	if len(r.pending) >= r.batchSize {
		return r.flushSteps(ctx)
	}
	return nil
}

// WriteReport writes the remaining steps, the totals and the anomalies
func (r *Recorder) WriteReport(ctx context.Context, report *model.Report) error {
	if err := r.flushSteps(ctx); err != nil {
		return err
	}
	if !r.started {
		run := &model.Run{
			RunID:     report.RunID,
			Period:    report.Period,
			Source:    r.source,
			StartedAt: report.FinishedAt,
		}
		if err := r.runs.Start(ctx, run); err != nil {
			return err
		}
		r.started = true
		r.runID = report.RunID
	}

	if err := r.runs.Finish(ctx, report); err != nil {
		return err
	}
	if err := r.anomalies.Replace(ctx, report); err != nil {
		return fmt.Errorf("failed to store anomalies: %w", err)
	}
	return nil
}

// Flush writes buffered steps and marks a run without report as aborted
func (r *Recorder) Flush(ctx context.Context) error {
	if err := r.flushSteps(ctx); err != nil {
		return err
	}
	if r.started {
		return r.runs.Abort(ctx, r.runID, r.count, time.Now())
	}
	return nil
}

func (r *Recorder) flushSteps(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.steps.InsertBatch(ctx, r.pending); err != nil {
		return err
	}
	r.pending = r.pending[:0]
	return nil
}
