package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tunogya/groundhog/pkg/common"
	"github.com/tunogya/groundhog/pkg/feature"
	"github.com/tunogya/groundhog/pkg/model"
	"github.com/tunogya/groundhog/pkg/store/duckdb"
	"github.com/tunogya/groundhog/pkg/store/milvus"
)

// Config holds backfill configuration
type Config struct {
	ConfigPath string

	// Runs to index; all stored runs when empty
	RunID string
	Limit int

	// Storage
	DuckDBPath string
	MilvusAddr string
	VectorDim  int

	// Processing
	BatchSize int
}

func main() {
	opts := parseFlags()

	cfg, err := common.LoadConfig(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if opts.DuckDBPath != "" {
		cfg.DuckDB.Path = opts.DuckDBPath
	}
	if cfg.DuckDB.Path == "" {
		cfg.DuckDB.Path = "groundhog.duckdb"
	}
	if opts.MilvusAddr != "" {
		cfg.Milvus.Address = opts.MilvusAddr
	}
	if opts.VectorDim > 0 {
		cfg.Milvus.Dimension = opts.VectorDim
	}
	if opts.BatchSize > 0 {
		cfg.DuckDB.BatchSize = opts.BatchSize
	}
	if cfg.Logging.Level == "warn" {
		cfg.Logging.Level = "info"
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	if err := run(context.Background(), cfg, opts, logger); err != nil {
		logger.Error().Str("error", err.Error()).Msg("backfill failed")
		os.Exit(1)
	}
}

// run indexes the windows of stored runs into Milvus
func run(ctx context.Context, cfg *common.Config, opts Config, logger *common.Logger) error {
	duckClient, err := duckdb.NewClient(cfg.DuckDB.Path)
	if err != nil {
		return err
	}
	defer duckClient.Close()

	runRepo := duckdb.NewRunRepo(duckClient)
	stepRepo := duckdb.NewStepRepo(duckClient)

	var runs []*model.Run
	if opts.RunID != "" {
		r, err := runRepo.GetByID(ctx, opts.RunID)
		if err != nil {
			return err
		}
		runs = append(runs, r)
	} else {
		runs, err = runRepo.List(ctx, opts.Limit)
		if err != nil {
			return err
		}
	}
	if len(runs) == 0 {
		logger.Warn().Str("duckdb", cfg.DuckDB.Path).Msg("no runs to index")
		return nil
	}

	milvusClient, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.Milvus.Address})
	if err != nil {
		return err
	}
	defer milvusClient.Close()

	collection := milvus.CollectionConfig{
		Name:      cfg.Milvus.Collection,
		Dimension: cfg.Milvus.Dimension,
		Shards:    1,
	}
	if err := milvusClient.EnsureCollection(ctx, collection); err != nil {
		return err
	}

	extractor := feature.NewExtractor(1, cfg.Milvus.Dimension)

	total := 0
	for _, r := range runs {
		steps, err := stepRepo.GetByRun(ctx, r.RunID)
		if err != nil {
			return err
		}

		n, err := reindexRun(ctx, milvusClient, collection.Name, extractor, r, steps, cfg.DuckDB.BatchSize)
		if err != nil {
			return fmt.Errorf("run %s: %w", r.RunID, err)
		}
		total += n

		logger.Info().
			Str("run_id", r.RunID).
			Int("period", r.Period).
			Int("readings", len(steps)).
			Int("windows", n).
			Msg("run indexed")
	}

	logger.Info().Int("runs", len(runs)).Int("windows", total).Msg("backfill complete")
	return nil
}

// reindexRun feeds the stored steps of a run through a fresh indexer and
// returns the number of windows written. Window IDs are deterministic, so
// indexing a run twice stores the same rows.
func reindexRun(ctx context.Context, store milvus.WindowStore, collection string, extractor *feature.Extractor, r *model.Run, steps []model.Step, batchSize int) (int, error) {
	counter := &countingStore{WindowStore: store}
	indexer := milvus.NewIndexer(counter, collection, extractor, batchSize)

	for _, step := range steps {
		step.Period = r.Period
		if err := indexer.WriteStep(ctx, step); err != nil {
			return counter.rows, err
		}
	}
	if err := indexer.Flush(ctx); err != nil {
		return counter.rows, err
	}
	return counter.rows, nil
}

// countingStore counts the rows written through it
type countingStore struct {
	milvus.WindowStore
	rows int
}

func (s *countingStore) InsertBatch(ctx context.Context, collectionName string, dataList []*milvus.WindowData) error {
	if err := s.WindowStore.InsertBatch(ctx, collectionName, dataList); err != nil {
		return err
	}
	s.rows += len(dataList)
	return nil
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.ConfigPath, "config", "", "TOML configuration file")
	flag.StringVar(&cfg.RunID, "run", "", "Index a single run")
	flag.IntVar(&cfg.Limit, "limit", 1000, "Number of recent runs to index")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "", "DuckDB file path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", "", "Milvus server address")
	flag.IntVar(&cfg.VectorDim, "dim", 0, "Vector dimension")
	flag.IntVar(&cfg.BatchSize, "batch", 0, "Batch size for Milvus inserts")

	flag.Parse()
	return cfg
}
