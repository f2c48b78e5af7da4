package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/tunogya/groundhog/pkg/model"
)

// Config holds all configuration for groundhog and its workers
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Input   InputConfig   `toml:"input"`
	Output  OutputConfig  `toml:"output"`
	DuckDB  DuckDBConfig  `toml:"duckdb"`
	NATS    NATSConfig    `toml:"nats"`
	Milvus  MilvusConfig  `toml:"milvus"`
	Metrics MetricsConfig `toml:"metrics"`
	Logging LoggingConfig `toml:"logging"`
}

// EngineConfig holds the stream parameters
type EngineConfig struct {
	Period   int    `toml:"period"`
	Sentinel string `toml:"sentinel"`
	TopN     int    `toml:"top_n"`
}

// InputConfig selects where readings come from. An empty path is stdin.
type InputConfig struct {
	Path   string `toml:"path"`
	Column string `toml:"column"` // CSV column; empty reads one value per line
}

// OutputConfig holds the file hand-off of the anomalies
type OutputConfig struct {
	AberrationsPath string `toml:"aberrations_path"`
}

// DuckDBConfig holds the run store configuration. An empty path disables it.
type DuckDBConfig struct {
	Path      string `toml:"path"`
	BatchSize int    `toml:"batch_size"`
}

// NATSConfig holds the step publisher configuration
type NATSConfig struct {
	Enabled    bool   `toml:"enabled"`
	URL        string `toml:"url"`
	StreamName string `toml:"stream_name"`
}

// MilvusConfig holds the window shape index configuration
type MilvusConfig struct {
	Enabled    bool   `toml:"enabled"`
	Address    string `toml:"address"`
	Collection string `toml:"collection"`
	Dimension  int    `toml:"dimension"`
}

// MetricsConfig holds the prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Address string `toml:"address"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Sentinel: "STOP",
			TopN:     model.DefaultTopN,
		},
		DuckDB: DuckDBConfig{
			BatchSize: 100,
		},
		NATS: NATSConfig{
			URL:        "nats://localhost:4222",
			StreamName: "groundhog",
		},
		Milvus: MilvusConfig{
			Address:    "localhost:19530",
			Collection: "reading_windows",
			Dimension:  model.VectorDim32,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Outputs:    []string{"console"},
			FilePath:   "./logs/groundhog.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if period := os.Getenv("GROUNDHOG_PERIOD"); period != "" {
		if p, err := strconv.Atoi(period); err == nil {
			config.Engine.Period = p
		}
	}

	if sentinel := os.Getenv("GROUNDHOG_SENTINEL"); sentinel != "" {
		config.Engine.Sentinel = sentinel
	}

	if path := os.Getenv("GROUNDHOG_DUCKDB_PATH"); path != "" {
		config.DuckDB.Path = path
	}

	if url := os.Getenv("GROUNDHOG_NATS_URL"); url != "" {
		config.NATS.URL = url
		config.NATS.Enabled = true
	}

	if addr := os.Getenv("GROUNDHOG_MILVUS_ADDRESS"); addr != "" {
		config.Milvus.Address = addr
		config.Milvus.Enabled = true
	}

	if addr := os.Getenv("GROUNDHOG_METRICS_ADDRESS"); addr != "" {
		config.Metrics.Address = addr
	}

	if level := os.Getenv("GROUNDHOG_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
}

// Validate checks the values the engine cannot run without
func (c *Config) Validate() error {
	if c.Engine.Period <= 0 {
		return fmt.Errorf("%w: period must be a positive integer, got %d", model.ErrInvalidArgument, c.Engine.Period)
	}
	if c.Engine.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive, got %d", model.ErrInvalidArgument, c.Engine.TopN)
	}
	if strings.TrimSpace(c.Engine.Sentinel) == "" {
		return fmt.Errorf("%w: sentinel must not be empty", model.ErrInvalidArgument)
	}
	return nil
}
