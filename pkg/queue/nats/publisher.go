package nats

import (
	"context"

	"github.com/tunogya/groundhog/pkg/model"
)

// Publishing is the part of Client the Publisher needs
type Publishing interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Publisher is a pipeline sink sending batches of steps and the run outcome
// to JetStream, for cmd/writer to persist
type Publisher struct {
	client    Publishing
	source    string
	batchSize int

	runID    string
	period   int
	count    int
	reported bool
	pending  []model.Step
}

// NewPublisher creates a publisher sink
func NewPublisher(client Publishing, source string, batchSize int) *Publisher {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Publisher{
		client:    client,
		source:    source,
		batchSize: batchSize,
	}
}

// WriteStep buffers a step and publishes full batches
func (p *Publisher) WriteStep(ctx context.Context, step model.Step) error {
	p.runID = step.RunID
	p.period = step.Period
	p.count++
	p.pending = append(p.pending, step)
	if len(p.pending) >= p.batchSize {
		return p.publishSteps(ctx)
	}
	return nil
}

// WriteReport publishes the remaining steps and the report
func (p *Publisher) WriteReport(ctx context.Context, report *model.Report) error {
	if err := p.publishSteps(ctx); err != nil {
		return err
	}

	data, err := Encode(ReportMsg{
		RunID:    report.RunID,
		Status:   model.RunFinished,
		Readings: report.Readings,
		Report:   report,
	})
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, SubjectReports, data); err != nil {
		return err
	}
	p.reported = true
	return nil
}

// Flush publishes the remaining steps and, when no report was sent, an
// aborted outcome
func (p *Publisher) Flush(ctx context.Context) error {
	if err := p.publishSteps(ctx); err != nil {
		return err
	}
	if p.reported || p.runID == "" {
		return nil
	}

	data, err := Encode(ReportMsg{
		RunID:    p.runID,
		Status:   model.RunAborted,
		Readings: p.count,
	})
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, SubjectReports, data); err != nil {
		return err
	}
	p.reported = true
	return nil
}

func (p *Publisher) publishSteps(ctx context.Context) error {
	if len(p.pending) == 0 {
		return nil
	}

	data, err := Encode(StepBatchMsg{
		RunID:  p.runID,
		Period: p.period,
		Source: p.source,
		Steps:  p.pending,
	})
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, SubjectSteps, data); err != nil {
		return err
	}
	p.pending = nil
	return nil
}
