package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tunogya/groundhog/pkg/model"
	"github.com/tunogya/groundhog/pkg/store/duckdb"
)

const sample = "27.7\n31.0\n32.7\n34.7\n35.9\n37.4\n38.2\n39.5\n40.3\n42.2\n41.3\n40.4\n39.8\n38.7\n36.5\nSTOP\n"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GROUNDHOG_PERIOD",
		"GROUNDHOG_SENTINEL",
		"GROUNDHOG_DUCKDB_PATH",
		"GROUNDHOG_NATS_URL",
		"GROUNDHOG_MILVUS_ADDRESS",
		"GROUNDHOG_METRICS_ADDRESS",
		"GROUNDHOG_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		period  int
		wantErr string
	}{
		{"period only", []string{"7"}, 7, ""},
		{"flags before period", []string{"-duckdb", "runs.db", "-top", "3", "5"}, 5, ""},
		{"no period", nil, 0, ""},
		{"too many", []string{"7", "8"}, 0, "Invalid argument"},
		{"not an integer", []string{"seven"}, 0, "must be an integer"},
		{"float period", []string{"7.5"}, 0, "must be an integer"},
		{"negative", []string{"-3"}, 0, "Invalid argument"},
		{"zero", []string{"0"}, 0, "Invalid period"},
		{"negative after separator", []string{"--", "-3"}, 0, "Invalid period"},
		{"unknown flag", []string{"-bogus", "7"}, 0, "Invalid argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			opts, err := parseArgs(tt.args, &out)

			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				if !errors.Is(err, model.ErrInvalidArgument) {
					t.Errorf("error %v is not ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.Period != tt.period {
				t.Errorf("Period = %d, want %d", opts.Period, tt.period)
			}
		})
	}
}

func TestParseArgsHelp(t *testing.T) {
	var out bytes.Buffer
	_, err := parseArgs([]string{"-h"}, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("error = %v, want flag.ErrHelp", err)
	}
	if !strings.HasPrefix(out.String(), "SYNOPSIS") {
		t.Errorf("usage not printed: %q", out.String())
	}
}

func TestRunConsole(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"7"}, strings.NewReader(sample), &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	if !strings.HasSuffix(got, "Global tendency switched 1 times\n5 weirdest values are [36.5, 42.2, 38.7, 39.5, 40.3]\n") {
		t.Errorf("unexpected report:\n%s", got)
	}
	if n := strings.Count(got, "\n"); n != 17 {
		t.Errorf("got %d lines, want 17", n)
	}
}

func TestRunPrematureTermination(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	err := run(context.Background(), []string{"7"}, strings.NewReader("STOP\n"), &out)
	if !errors.Is(err, model.ErrPrematureTermination) {
		t.Fatalf("error = %v, want ErrPrematureTermination", err)
	}
	if model.ErrorKind(err) != "PrematureTermination" {
		t.Errorf("ErrorKind = %s", model.ErrorKind(err))
	}
}

func TestRunInvalidInput(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	err := run(context.Background(), []string{"3"}, strings.NewReader("1\n2\nabc\n"), &out)
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestRunMissingPeriod(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	err := run(context.Background(), nil, strings.NewReader(sample), &out)
	if err == nil || err.Error() != "Invalid argument" {
		t.Fatalf("error = %v, want Invalid argument", err)
	}
}

func TestRunPeriodFromConfig(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "groundhog.toml")
	if err := os.WriteFile(cfgPath, []byte("[engine]\nperiod = 7\ntop_n = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-config", cfgPath}, strings.NewReader(sample), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasSuffix(out.String(), "2 weirdest values are [36.5, 42.2]\n") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunWithFileInputAndStores(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "readings.txt")
	if err := os.WriteFile(input, []byte(sample), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	aberrations := filepath.Join(dir, "out", "aberrations.txt")
	dbPath := filepath.Join(dir, "runs.db")

	var out bytes.Buffer
	args := []string{"-input", input, "-aberrations", aberrations, "-duckdb", dbPath, "7"}
	if err := run(context.Background(), args, strings.NewReader(""), &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	content, err := os.ReadFile(aberrations)
	if err != nil {
		t.Fatalf("read aberrations: %v", err)
	}
	if string(content) != "36.5\n42.2\n38.7\n39.5\n40.3" {
		t.Errorf("aberrations = %q", content)
	}

	client, err := duckdb.NewClient(dbPath)
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	defer client.Close()

	runs, err := duckdb.NewRunRepo(client).List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Status != model.RunFinished || runs[0].Switches != 1 || runs[0].Source != input {
		t.Errorf("unexpected run: %+v", runs[0])
	}
}
