package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tunogya/groundhog/pkg/common"
	"github.com/tunogya/groundhog/pkg/metrics"
	"github.com/tunogya/groundhog/pkg/queue/nats"
	"github.com/tunogya/groundhog/pkg/store/duckdb"
)

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	natsURL := flag.String("nats", "", "NATS server URL")
	duckPath := flag.String("duckdb", "", "DuckDB file path")
	metricsAddr := flag.String("metrics", "", "Serve prometheus metrics on this address")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *natsURL != "" {
		cfg.NATS.URL = *natsURL
	}
	if *duckPath != "" {
		cfg.DuckDB.Path = *duckPath
	}
	if cfg.DuckDB.Path == "" {
		cfg.DuckDB.Path = "groundhog.duckdb"
	}
	if *metricsAddr != "" {
		cfg.Metrics.Address = *metricsAddr
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Str("error", err.Error()).Msg("writer worker failed")
		stop()
		os.Exit(1)
	}
}

// run consumes step and report messages into DuckDB until ctx is done
func run(ctx context.Context, cfg *common.Config, logger *common.Logger) error {
	logger.Info().Str("nats", cfg.NATS.URL).Str("duckdb", cfg.DuckDB.Path).Msg("starting writer worker")

	duckClient, err := duckdb.NewClient(cfg.DuckDB.Path)
	if err != nil {
		return err
	}
	defer duckClient.Close()

	if err := duckdb.InitializeSchema(ctx, duckClient); err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Address != "" {
		collector = metrics.NewCollector()
		srv := &http.Server{Addr: cfg.Metrics.Address, Handler: collector.Routes()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Str("error", err.Error()).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info().Str("address", cfg.Metrics.Address).Msg("serving metrics")
	}

	natsCfg := nats.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.StreamName = cfg.NATS.StreamName
	natsCfg.ClientName = "groundhog-writer"

	natsClient, err := nats.NewClient(natsCfg)
	if err != nil {
		return err
	}
	defer natsClient.Close()

	if err := natsClient.EnsureStream(ctx); err != nil {
		return err
	}

	h := newHandler(duckClient, collector, logger)

	stepConsumer, err := natsClient.Subscribe(ctx, nats.SubjectSteps, "step-writer", func(ctx context.Context, msg jetstream.Msg) error {
		return h.handleSteps(ctx, msg.Data())
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to steps: %w", err)
	}
	defer stepConsumer.Stop()

	reportConsumer, err := natsClient.Subscribe(ctx, nats.SubjectReports, "report-writer", func(ctx context.Context, msg jetstream.Msg) error {
		return h.handleReport(ctx, msg.Data())
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to reports: %w", err)
	}
	defer reportConsumer.Stop()

	logger.Info().Msg("writer worker started, waiting for messages")
	<-ctx.Done()
	logger.Info().Msg("shutting down writer worker")
	return nil
}
