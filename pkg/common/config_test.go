package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tunogya/groundhog/pkg/model"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Engine.Sentinel != "STOP" {
		t.Errorf("Sentinel default = %q, want STOP", cfg.Engine.Sentinel)
	}
	if cfg.Engine.TopN != 5 {
		t.Errorf("TopN default = %d, want 5", cfg.Engine.TopN)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level default = %q, want warn", cfg.Logging.Level)
	}
	if cfg.NATS.Enabled || cfg.Milvus.Enabled || cfg.DuckDB.Path != "" {
		t.Error("external stores must be disabled by default")
	}
}

func TestConfig_LoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groundhog.toml")
	content := `
[engine]
period = 7

[duckdb]
path = "runs.duckdb"
batch_size = 10

[milvus]
enabled = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Engine.Period != 7 {
		t.Errorf("Period = %d, want 7", cfg.Engine.Period)
	}
	if cfg.Engine.Sentinel != "STOP" {
		t.Errorf("Sentinel = %q, defaults must survive partial files", cfg.Engine.Sentinel)
	}
	if cfg.DuckDB.Path != "runs.duckdb" || cfg.DuckDB.BatchSize != 10 {
		t.Errorf("DuckDB = %+v", cfg.DuckDB)
	}
	if !cfg.Milvus.Enabled || cfg.Milvus.Collection != "reading_windows" {
		t.Errorf("Milvus = %+v", cfg.Milvus)
	}
}

func TestConfig_LaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	local := filepath.Join(dir, "local.toml")
	if err := os.WriteFile(base, []byte("[engine]\nperiod = 7\ntop_n = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(local, []byte("[engine]\nperiod = 12\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(base, filepath.Join(dir, "missing.toml"), local)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine.Period != 12 || cfg.Engine.TopN != 3 {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
}

func TestConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[engine\nperiod = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GROUNDHOG_PERIOD", "9")
	t.Setenv("GROUNDHOG_NATS_URL", "nats://queue:4222")
	t.Setenv("GROUNDHOG_LOG_LEVEL", "DEBUG")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Engine.Period != 9 {
		t.Errorf("Period = %d after env override, want 9", cfg.Engine.Period)
	}
	if !cfg.NATS.Enabled || cfg.NATS.URL != "nats://queue:4222" {
		t.Errorf("NATS = %+v", cfg.NATS)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("zero period: error = %v, want ErrInvalidArgument", err)
	}

	cfg.Engine.Period = 7
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	cfg.Engine.Sentinel = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an empty sentinel")
	}
}
