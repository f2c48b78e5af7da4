package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/tunogya/groundhog/pkg/common"
	"github.com/tunogya/groundhog/pkg/data"
	"github.com/tunogya/groundhog/pkg/engine"
	"github.com/tunogya/groundhog/pkg/feature"
	"github.com/tunogya/groundhog/pkg/metrics"
	"github.com/tunogya/groundhog/pkg/model"
	"github.com/tunogya/groundhog/pkg/pipeline"
	"github.com/tunogya/groundhog/pkg/queue/nats"
	"github.com/tunogya/groundhog/pkg/store/duckdb"
	"github.com/tunogya/groundhog/pkg/store/milvus"
)

// exitFailure is the status of every failed run
const exitFailure = 84

const usage = "SYNOPSIS\n\t./groundhog [options] period\nDESCRIPTION\n\tperiod the number of days defining a period\nOPTIONS\n"

// argError is a command line error shown to the user as is
type argError string

func (e argError) Error() string { return string(e) }
func (e argError) Unwrap() error { return model.ErrInvalidArgument }

// Options holds the command line flags. Zero values leave the config untouched.
type Options struct {
	ConfigPath      string
	InputPath       string
	Column          string
	AberrationsPath string
	DuckDBPath      string
	NATSURL         string
	MilvusAddr      string
	MetricsAddr     string
	LogLevel        string
	TopN            int
	Period          int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stdout, "%s: %s\n", model.ErrorKind(err), err)
		os.Exit(exitFailure)
	}
}

// parseArgs reads the flags and the period argument
func parseArgs(args []string, out io.Writer) (Options, error) {
	var opts Options

	fs := flag.NewFlagSet("groundhog", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprint(out, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.ConfigPath, "config", "", "TOML configuration file")
	fs.StringVar(&opts.InputPath, "input", "", "Read readings from a file instead of stdin")
	fs.StringVar(&opts.Column, "column", "", "CSV column holding the readings")
	fs.StringVar(&opts.AberrationsPath, "aberrations", "", "Write the weirdest values to this file")
	fs.StringVar(&opts.DuckDBPath, "duckdb", "", "Record the run in this DuckDB file")
	fs.StringVar(&opts.NATSURL, "nats", "", "Publish steps to this NATS server")
	fs.StringVar(&opts.MilvusAddr, "milvus", "", "Index window shapes in this Milvus server")
	fs.StringVar(&opts.MetricsAddr, "metrics", "", "Serve prometheus metrics on this address")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.IntVar(&opts.TopN, "top", 0, "Number of weirdest values to report")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, err
		}
		return opts, argError("Invalid argument")
	}

	switch fs.NArg() {
	case 0:
		// the period may come from the configuration
		return opts, nil
	case 1:
	default:
		return opts, argError("Invalid argument")
	}

	period, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		return opts, argError("must be an integer")
	}
	if period <= 0 {
		return opts, argError("Invalid period")
	}
	opts.Period = period

	return opts, nil
}

// applyOptions overrides the loaded configuration with the flags that were set
func applyOptions(cfg *common.Config, opts Options) {
	if opts.Period > 0 {
		cfg.Engine.Period = opts.Period
	}
	if opts.TopN > 0 {
		cfg.Engine.TopN = opts.TopN
	}
	if opts.InputPath != "" {
		cfg.Input.Path = opts.InputPath
	}
	if opts.Column != "" {
		cfg.Input.Column = opts.Column
	}
	if opts.AberrationsPath != "" {
		cfg.Output.AberrationsPath = opts.AberrationsPath
	}
	if opts.DuckDBPath != "" {
		cfg.DuckDB.Path = opts.DuckDBPath
	}
	if opts.NATSURL != "" {
		cfg.NATS.URL = opts.NATSURL
		cfg.NATS.Enabled = true
	}
	if opts.MilvusAddr != "" {
		cfg.Milvus.Address = opts.MilvusAddr
		cfg.Milvus.Enabled = true
	}
	if opts.MetricsAddr != "" {
		cfg.Metrics.Address = opts.MetricsAddr
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseArgs(args, stdout)
	if err != nil {
		return err
	}

	cfg, err := common.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	applyOptions(cfg, opts)

	if cfg.Engine.Period == 0 && opts.Period == 0 {
		return argError("Invalid argument")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	eng, err := engine.New(cfg.Engine.Period, engine.WithTopN(cfg.Engine.TopN))
	if err != nil {
		return err
	}

	logger := common.NewLoggerFromConfig(cfg.Logging).WithCorrelationId(eng.RunID())

	source, sourceName, closeSource, err := openSource(cfg, stdin)
	if err != nil {
		return err
	}
	defer closeSource()

	sinks := []pipeline.Sink{pipeline.NewConsoleSink(stdout, cfg.Engine.TopN)}
	if cfg.Output.AberrationsPath != "" {
		sinks = append(sinks, pipeline.NewFileSink(cfg.Output.AberrationsPath))
	}

	closers, extra, err := openSinks(ctx, cfg, sourceName, logger)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()
	if err != nil {
		return err
	}
	sinks = append(sinks, extra...)

	runner := &pipeline.Runner{
		Source: source,
		Engine: eng,
		Sinks:  sinks,
		Logger: logger,
	}

	_, err = runner.Run(ctx)
	return err
}

// openSource selects stdin, a line file or a CSV file
func openSource(cfg *common.Config, stdin io.Reader) (data.Source, string, func(), error) {
	path := cfg.Input.Path
	if path == "" || path == "-" {
		return data.NewLineSource(stdin, cfg.Engine.Sentinel), "stdin", func() {}, nil
	}

	if cfg.Input.Column != "" || strings.EqualFold(filepath.Ext(path), ".csv") {
		return data.NewCSVSource(path, cfg.Input.Column), path, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to open input: %w", err)
	}
	return data.NewLineSource(f, cfg.Engine.Sentinel), path, func() { f.Close() }, nil
}

// openSinks connects the optional stores. Closers are returned even on error
// so whatever was opened gets released.
func openSinks(ctx context.Context, cfg *common.Config, source string, logger *common.Logger) ([]func(), []pipeline.Sink, error) {
	var (
		closers []func()
		sinks   []pipeline.Sink
	)

	if cfg.DuckDB.Path != "" {
		client, err := duckdb.NewClient(cfg.DuckDB.Path)
		if err != nil {
			return closers, nil, err
		}
		closers = append(closers, func() { client.Close() })

		if err := duckdb.InitializeSchema(ctx, client); err != nil {
			return closers, nil, err
		}
		sinks = append(sinks, duckdb.NewRecorder(client, source, cfg.DuckDB.BatchSize))
		logger.Info().Str("path", cfg.DuckDB.Path).Msg("recording run in duckdb")
	}

	if cfg.NATS.Enabled {
		natsCfg := nats.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.StreamName = cfg.NATS.StreamName

		client, err := nats.NewClient(natsCfg)
		if err != nil {
			return closers, nil, err
		}
		closers = append(closers, client.Close)

		if err := client.EnsureStream(ctx); err != nil {
			return closers, nil, err
		}
		sinks = append(sinks, nats.NewPublisher(client, source, cfg.DuckDB.BatchSize))
		logger.Info().Str("url", cfg.NATS.URL).Msg("publishing steps to nats")
	}

	if cfg.Milvus.Enabled {
		client, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.Milvus.Address})
		if err != nil {
			return closers, nil, err
		}
		closers = append(closers, func() { client.Close() })

		collection := milvus.CollectionConfig{
			Name:      cfg.Milvus.Collection,
			Dimension: cfg.Milvus.Dimension,
			Shards:    1,
		}
		if err := client.EnsureCollection(ctx, collection); err != nil {
			return closers, nil, err
		}
		extractor := feature.NewExtractor(1, cfg.Milvus.Dimension)
		sinks = append(sinks, milvus.NewIndexer(client, collection.Name, extractor, cfg.DuckDB.BatchSize))
		logger.Info().Str("address", cfg.Milvus.Address).Msg("indexing window shapes in milvus")
	}

	if cfg.Metrics.Address != "" {
		collector := metrics.NewCollector()
		srv := &http.Server{Addr: cfg.Metrics.Address, Handler: collector.Routes()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn().Str("error", err.Error()).Msg("metrics server failed")
			}
		}()
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
		sinks = append(sinks, collector)
	}

	return closers, sinks, nil
}
