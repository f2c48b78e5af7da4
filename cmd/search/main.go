package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tunogya/groundhog/pkg/common"
	"github.com/tunogya/groundhog/pkg/feature"
	"github.com/tunogya/groundhog/pkg/model"
	"github.com/tunogya/groundhog/pkg/pipeline"
	"github.com/tunogya/groundhog/pkg/store/duckdb"
	"github.com/tunogya/groundhog/pkg/store/milvus"
)

// Config holds the search command options
type Config struct {
	ConfigPath string
	RunID      string
	Index      int
	Limit      int
	TopK       int
	SameRun    bool
	Trend      string

	DuckDBPath string
	MilvusAddr string
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

	logger := common.NewLoggerFromConfig(cfg.Logging)
	ctx := context.Background()

	duckClient, err := duckdb.NewClient(cfg.DuckDB.Path)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to open duckdb")
		os.Exit(1)
	}
	defer duckClient.Close()

	switch {
	case opts.RunID == "":
		err = listRuns(ctx, os.Stdout, duckClient, opts.Limit)
	case opts.Index < 0:
		err = showRun(ctx, os.Stdout, duckClient, opts.RunID)
	default:
		err = searchSimilar(ctx, os.Stdout, duckClient, cfg, opts)
	}
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("search failed")
		duckClient.Close()
		os.Exit(1)
	}
}

// listRuns prints the most recent runs
func listRuns(ctx context.Context, w io.Writer, client *duckdb.Client, limit int) error {
	runs, err := duckdb.NewRunRepo(client).List(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%-36s %-8s %-9s %-8s %-8s %s\n", "RunID", "Period", "Status", "Readings", "Switches", "Started")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s %-8d %-9s %-8d %-8d %s\n",
			r.RunID, r.Period, r.Status, r.Readings, r.Switches, r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// showRun replays a stored run in the console format
func showRun(ctx context.Context, w io.Writer, client *duckdb.Client, runID string) error {
	run, err := duckdb.NewRunRepo(client).GetByID(ctx, runID)
	if err != nil {
		return err
	}
	steps, err := duckdb.NewStepRepo(client).GetByRun(ctx, runID)
	if err != nil {
		return err
	}
	anomalies, err := duckdb.NewAnomalyRepo(client).GetByRun(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "run %s period=%d source=%s status=%s readings=%d\n",
		run.RunID, run.Period, run.Source, run.Status, len(steps))
	for _, step := range steps {
		fmt.Fprintf(w, "%d\t%s\t%s\n", step.Reading.Index, model.FormatFloat(step.Reading.Value), pipeline.FormatStep(step))
	}
	if run.Status == model.RunFinished {
		fmt.Fprintf(w, "Global tendency switched %d times\n%d weirdest values are %s\n",
			run.Switches, len(anomalies), model.FormatFloats(anomalies))
	}
	return nil
}

// searchSimilar finds the stored windows closest in shape to the window
// ending at the given reading
func searchSimilar(ctx context.Context, w io.Writer, client *duckdb.Client, cfg *common.Config, opts Config) error {
	run, err := duckdb.NewRunRepo(client).GetByID(ctx, opts.RunID)
	if err != nil {
		return err
	}
	steps, err := duckdb.NewStepRepo(client).GetRange(ctx, run.RunID, opts.Index-run.Period, opts.Index)
	if err != nil {
		return err
	}

	query, err := queryWindow(run.RunID, run.Period, opts.Index, steps)
	if err != nil {
		return err
	}

	extractor := feature.NewExtractor(1, cfg.Milvus.Dimension)
	embedding, err := extractor.Extract(query)
	if err != nil {
		return err
	}

	milvusClient, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.Milvus.Address})
	if err != nil {
		return err
	}
	defer milvusClient.Close()

	if err := milvusClient.LoadCollection(ctx, cfg.Milvus.Collection); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	filter := milvus.SearchFilter{ExcludeWindowID: query.WindowID}
	if opts.SameRun {
		filter.RunID = run.RunID
	}
	filter.Trend, err = parseTrend(opts.Trend)
	if err != nil {
		return err
	}

	results, err := milvusClient.Search(ctx, cfg.Milvus.Collection, embedding, filter, opts.TopK)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "windows shaped like readings %d..%d of run %s\n", query.First().Index, query.Last().Index, run.RunID)
	fmt.Fprintf(w, "%-5s %-36s %-8s %-6s %-20s %s\n", "Rank", "RunID", "End", "Trend", "End Time", "Sim%")
	for i, r := range results {
		fmt.Fprintf(w, "%-5d %-36s %-8d %-6s %-20s %.2f%%\n",
			i+1, r.RunID, r.EndIndex, trendName(r.Trend), r.TEnd.Format("2006-01-02 15:04:05"), r.Score*100)
	}
	return nil
}

// queryWindow rebuilds the window the indexer stored for the reading at index
func queryWindow(runID string, period, index int, steps []model.Step) (*model.Window, error) {
	if index < period {
		return nil, fmt.Errorf("%w: reading %d has no complete window with period %d", model.ErrInvalidArgument, index, period)
	}
	if len(steps) != period+1 {
		return nil, fmt.Errorf("run %s has %d of the %d readings ending at %d", runID, len(steps), period+1, index)
	}

	readings := make([]model.Reading, len(steps))
	for i, s := range steps {
		readings[i] = s.Reading
	}
	return model.NewWindow(runID, 1, readings), nil
}

func parseTrend(s string) (int32, error) {
	switch s {
	case "", "any":
		return milvus.TrendUnknown, nil
	case "up":
		return milvus.TrendUp, nil
	case "down":
		return milvus.TrendDown, nil
	default:
		return 0, fmt.Errorf("%w: unknown trend %q", model.ErrInvalidArgument, s)
	}
}

func trendName(t int32) string {
	switch t {
	case milvus.TrendUp:
		return "up"
	case milvus.TrendDown:
		return "down"
	default:
		return "-"
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.ConfigPath, "config", "", "TOML configuration file")
	flag.StringVar(&cfg.RunID, "run", "", "Run to show; lists recent runs when empty")
	flag.IntVar(&cfg.Index, "index", -1, "Search windows shaped like the one ending at this reading")
	flag.IntVar(&cfg.Limit, "limit", 20, "Number of runs to list")
	flag.IntVar(&cfg.TopK, "topk", 10, "Top K results")
	flag.BoolVar(&cfg.SameRun, "same-run", false, "Only search windows of the same run")
	flag.StringVar(&cfg.Trend, "trend", "any", "Only windows with this trend (any, up, down)")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "", "DuckDB path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", "", "Milvus address")

	flag.Parse()
	return cfg
}
