package main

import (
	"context"
	"sync"
	"time"

	"github.com/tunogya/groundhog/pkg/common"
	"github.com/tunogya/groundhog/pkg/metrics"
	"github.com/tunogya/groundhog/pkg/model"
	"github.com/tunogya/groundhog/pkg/queue/nats"
	"github.com/tunogya/groundhog/pkg/store/duckdb"
)

// handler persists the messages of both consumers. Writes are serialized,
// the step and report consumers deliver concurrently.
type handler struct {
	mu sync.Mutex

	runs      *duckdb.RunRepo
	steps     *duckdb.StepRepo
	anomalies *duckdb.AnomalyRepo
	collector *metrics.Collector // optional
	logger    *common.Logger
}

func newHandler(client *duckdb.Client, collector *metrics.Collector, logger *common.Logger) *handler {
	return &handler{
		runs:      duckdb.NewRunRepo(client),
		steps:     duckdb.NewStepRepo(client),
		anomalies: duckdb.NewAnomalyRepo(client),
		collector: collector,
		logger:    logger,
	}
}

// handleSteps registers the run if needed and stores the batch.
// Redelivered batches are ignored by the step primary key.
func (h *handler) handleSteps(ctx context.Context, data []byte) error {
	batch, err := nats.DecodeStepBatch(data)
	if err != nil {
		h.logger.Warn().Str("error", err.Error()).Msg("dropping malformed step batch")
		return nil
	}
	if len(batch.Steps) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	run := &model.Run{
		RunID:     batch.RunID,
		Period:    batch.Period,
		Source:    batch.Source,
		StartedAt: batch.Steps[0].Reading.ReceivedAt,
	}
	if err := h.runs.Start(ctx, run); err != nil {
		return err
	}
	if err := h.steps.InsertBatch(ctx, batch.Steps); err != nil {
		return err
	}

	if h.collector != nil {
		for _, step := range batch.Steps {
			_ = h.collector.WriteStep(ctx, step)
		}
	}

	h.logger.Debug().Str("run_id", batch.RunID).Int("steps", len(batch.Steps)).Msg("inserted steps")
	return nil
}

// handleReport closes a run as finished or aborted. A report may overtake
// the last step batches, so the run is registered here as well.
func (h *handler) handleReport(ctx context.Context, data []byte) error {
	msg, err := nats.DecodeReport(data)
	if err != nil {
		h.logger.Warn().Str("error", err.Error()).Msg("dropping malformed report")
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	run := &model.Run{RunID: msg.RunID, StartedAt: time.Now()}
	if msg.Report != nil {
		run.Period = msg.Report.Period
		run.StartedAt = msg.Report.FinishedAt
	}
	if err := h.runs.Start(ctx, run); err != nil {
		return err
	}

	if msg.Status == model.RunAborted || msg.Report == nil {
		if err := h.runs.Abort(ctx, msg.RunID, msg.Readings, time.Now()); err != nil {
			return err
		}
		h.logger.Info().Str("run_id", msg.RunID).Int("readings", msg.Readings).Msg("run aborted")
		return nil
	}

	if err := h.runs.Finish(ctx, msg.Report); err != nil {
		return err
	}
	if err := h.anomalies.Replace(ctx, msg.Report); err != nil {
		return err
	}
	if h.collector != nil {
		_ = h.collector.WriteReport(ctx, msg.Report)
	}

	h.logger.Info().
		Str("run_id", msg.RunID).
		Int("readings", msg.Report.Readings).
		Int("switches", msg.Report.Switches).
		Msg("run finished")
	return nil
}
