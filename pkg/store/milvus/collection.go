package milvus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// DefaultCollectionName is the default collection name for reading windows
	DefaultCollectionName = "reading_windows"
)

// Trend of a window, taken from the sign of its percent change
const (
	TrendUnknown int32 = 0
	TrendUp      int32 = 1
	TrendDown    int32 = -1
)

// CollectionConfig holds configuration for creating a collection
type CollectionConfig struct {
	Name      string
	Dimension int // Vector dimension
	Shards    int // Number of shards
}

// DefaultCollectionConfig returns default collection configuration
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Name:      DefaultCollectionName,
		Dimension: 32,
		Shards:    1,
	}
}

// CreateCollection creates the reading_windows collection if it is missing
func (c *Client) CreateCollection(ctx context.Context, cfg CollectionConfig) error {
	exists, err := c.HasCollection(ctx, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: cfg.Name,
		Description:    "Trailing reading windows for shape similarity search",
		Fields: []*entity.Field{
			{
				Name:       "window_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", cfg.Dimension),
				},
			},
			{
				Name:     "run_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "end_index",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "t_end",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "trend",
				DataType: entity.FieldTypeInt32,
			},
			{
				Name:     "feature_version",
				DataType: entity.FieldTypeInt32,
			},
		},
	}

	if err := c.conn.CreateCollection(ctx, schema, int32(cfg.Shards)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// WindowData holds data for inserting a window into Milvus
type WindowData struct {
	WindowID       string
	Embedding      []float32
	RunID          string
	EndIndex       int64
	TEnd           time.Time
	Trend          int32
	FeatureVersion int32
}

// Insert inserts a single window embedding
func (c *Client) Insert(ctx context.Context, collectionName string, data *WindowData) error {
	return c.InsertBatch(ctx, collectionName, []*WindowData{data})
}

// InsertBatch inserts multiple window embeddings
func (c *Client) InsertBatch(ctx context.Context, collectionName string, dataList []*WindowData) error {
	if len(dataList) == 0 {
		return nil
	}

	columns, err := buildColumns(dataList)
	if err != nil {
		return err
	}

	if _, err := c.conn.Insert(ctx, collectionName, "", columns...); err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	return nil
}

// buildColumns turns rows into the column layout of the collection
func buildColumns(dataList []*WindowData) ([]entity.Column, error) {
	dim := len(dataList[0].Embedding)
	if dim == 0 {
		return nil, fmt.Errorf("window %s has an empty embedding", dataList[0].WindowID)
	}

	windowIDs := make([]string, len(dataList))
	embeddings := make([][]float32, len(dataList))
	runIDs := make([]string, len(dataList))
	endIndexes := make([]int64, len(dataList))
	tEnds := make([]int64, len(dataList))
	trends := make([]int32, len(dataList))
	versions := make([]int32, len(dataList))

	for i, d := range dataList {
		if len(d.Embedding) != dim {
			return nil, fmt.Errorf("window %s has dimension %d, expected %d", d.WindowID, len(d.Embedding), dim)
		}
		windowIDs[i] = d.WindowID
		embeddings[i] = d.Embedding
		runIDs[i] = d.RunID
		endIndexes[i] = d.EndIndex
		tEnds[i] = d.TEnd.UnixMilli()
		trends[i] = d.Trend
		versions[i] = d.FeatureVersion
	}

	return []entity.Column{
		entity.NewColumnVarChar("window_id", windowIDs),
		entity.NewColumnFloatVector("embedding", dim, embeddings),
		entity.NewColumnVarChar("run_id", runIDs),
		entity.NewColumnInt64("end_index", endIndexes),
		entity.NewColumnInt64("t_end", tEnds),
		entity.NewColumnInt32("trend", trends),
		entity.NewColumnInt32("feature_version", versions),
	}, nil
}

// SearchResult represents a single search result
type SearchResult struct {
	WindowID       string
	Score          float32
	RunID          string
	EndIndex       int64
	TEnd           time.Time
	Trend          int32
	FeatureVersion int32
}

// SearchFilter narrows a similarity search
type SearchFilter struct {
	RunID           string // only windows of this run
	ExcludeWindowID string // typically the query window itself
	Trend           int32  // TrendUnknown matches any trend
}

// Expr renders the filter as a Milvus boolean expression
func (f SearchFilter) Expr() string {
	var parts []string
	if f.RunID != "" {
		parts = append(parts, fmt.Sprintf("run_id == %q", f.RunID))
	}
	if f.ExcludeWindowID != "" {
		parts = append(parts, fmt.Sprintf("window_id != %q", f.ExcludeWindowID))
	}
	if f.Trend != TrendUnknown {
		parts = append(parts, fmt.Sprintf("trend == %d", f.Trend))
	}
	return strings.Join(parts, " && ")
}

var outputFields = []string{"window_id", "run_id", "end_index", "t_end", "trend", "feature_version"}

// Search performs a TopK similarity search
func (c *Client) Search(ctx context.Context, collectionName string, embedding []float32, filter SearchFilter, topK int) ([]SearchResult, error) {
	vectors := []entity.Vector{entity.FloatVector(embedding)}

	sp, err := entity.NewIndexIvfFlatSearchParam(16) // nprobe
	if err != nil {
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := c.conn.Search(
		ctx,
		collectionName,
		nil,
		filter.Expr(),
		outputFields,
		vectors,
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}
	return parseResults(results[0]), nil
}

func parseResults(res client.SearchResult) []SearchResult {
	searchResults := make([]SearchResult, 0, res.ResultCount)
	for i := 0; i < res.ResultCount; i++ {
		result := SearchResult{
			Score: res.Scores[i],
		}

		for _, field := range res.Fields {
			switch field.Name() {
			case "window_id":
				if col, ok := field.(*entity.ColumnVarChar); ok {
					result.WindowID, _ = col.ValueByIdx(i)
				}
			case "run_id":
				if col, ok := field.(*entity.ColumnVarChar); ok {
					result.RunID, _ = col.ValueByIdx(i)
				}
			case "end_index":
				if col, ok := field.(*entity.ColumnInt64); ok {
					result.EndIndex, _ = col.ValueByIdx(i)
				}
			case "t_end":
				if col, ok := field.(*entity.ColumnInt64); ok {
					val, _ := col.ValueByIdx(i)
					result.TEnd = time.UnixMilli(val)
				}
			case "trend":
				if col, ok := field.(*entity.ColumnInt32); ok {
					result.Trend, _ = col.ValueByIdx(i)
				}
			case "feature_version":
				if col, ok := field.(*entity.ColumnInt32); ok {
					result.FeatureVersion, _ = col.ValueByIdx(i)
				}
			}
		}

		searchResults = append(searchResults, result)
	}
	return searchResults
}

// Flush flushes the collection to ensure data persistence
func (c *Client) Flush(ctx context.Context, collectionName string) error {
	return c.conn.Flush(ctx, collectionName, false)
}
