package milvus

import (
	"context"
	"fmt"

	"github.com/tunogya/groundhog/pkg/feature"
	"github.com/tunogya/groundhog/pkg/model"
	"github.com/tunogya/groundhog/pkg/window"
)

// WindowStore is the part of Client the Indexer writes through
type WindowStore interface {
	InsertBatch(ctx context.Context, collectionName string, dataList []*WindowData) error
	Flush(ctx context.Context, collectionName string) error
}

// Indexer is a pipeline sink that turns every complete trailing window of a
// run into a shape vector and stores it for similarity search
type Indexer struct {
	store      WindowStore
	collection string
	extractor  *feature.Extractor
	batchSize  int

	history *window.History
	builder *window.Builder
	pending []*WindowData
	dirty   bool
}

// NewIndexer creates an indexer writing to collection
func NewIndexer(store WindowStore, collection string, extractor *feature.Extractor, batchSize int) *Indexer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Indexer{
		store:      store,
		collection: collection,
		extractor:  extractor,
		batchSize:  batchSize,
		history:    window.NewHistory(),
	}
}

// WriteStep records the reading and indexes the window ending at it
func (ix *Indexer) WriteStep(ctx context.Context, step model.Step) error {
	if ix.builder == nil {
		ix.builder = window.NewBuilder(window.DefaultConfig(step.RunID, step.Period))
	}
	if err := ix.history.Append(step.Reading); err != nil {
		return err
	}

	w, ok := ix.builder.Next(ix.history)
	if !ok {
		return nil
	}

	vec, err := ix.extractor.Extract(w)
	if err != nil {
		return fmt.Errorf("failed to extract window %s: %w", w.WindowID, err)
	}

	ix.pending = append(ix.pending, NewWindowData(w, vec, ix.extractor.DataVersion, step.Snapshot.Change))
	if len(ix.pending) >= ix.batchSize {
		return ix.insertPending(ctx)
	}
	return nil
}

// WriteReport writes the remaining windows and flushes the collection
func (ix *Indexer) WriteReport(ctx context.Context, _ *model.Report) error {
	return ix.Flush(ctx)
}

// Flush writes the remaining windows and flushes the collection once
func (ix *Indexer) Flush(ctx context.Context) error {
	if err := ix.insertPending(ctx); err != nil {
		return err
	}
	if !ix.dirty {
		return nil
	}
	if err := ix.store.Flush(ctx, ix.collection); err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	ix.dirty = false
	return nil
}

func (ix *Indexer) insertPending(ctx context.Context) error {
	if len(ix.pending) == 0 {
		return nil
	}
	if err := ix.store.InsertBatch(ctx, ix.collection, ix.pending); err != nil {
		return err
	}
	ix.pending = nil
	ix.dirty = true
	return nil
}

// NewWindowData builds the row of a window. The trend is the sign of the
// percent change at the window end.
func NewWindowData(w *model.Window, vec model.ShapeVector, version int, change model.Measurement) *WindowData {
	data := &WindowData{
		WindowID:       w.WindowID,
		Embedding:      vec,
		RunID:          w.RunID,
		EndIndex:       int64(w.EndIndex),
		Trend:          TrendOf(change),
		FeatureVersion: int32(version),
	}
	if last := w.Last(); last != nil {
		data.TEnd = last.ReceivedAt
	}
	return data
}

// TrendOf classifies a percent change the way the switch detector does:
// zero counts as rising
func TrendOf(change model.Measurement) int32 {
	switch {
	case !change.Valid:
		return TrendUnknown
	case change.Value < 0:
		return TrendDown
	default:
		return TrendUp
	}
}
