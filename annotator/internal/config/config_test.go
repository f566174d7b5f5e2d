package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/obsidianstack/holecheck/pkg/compute"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
log_level: debug
annotator:
  dataset: parts-2023
  input: data/raw/parts.csv
  output: data/processed/parts.csv
  textfile: data/processed/holecheck.prom
  schedule: "@every 1h"
  rules:
    warning_column: warn
    error_column: err
    holes_column: bores
    poor_ratio: 8
    critical_ratio: 30
    workers: 4
`
	cfg := loadFromString(t, yaml)

	a := cfg.Annotator
	if a.Dataset != "parts-2023" {
		t.Errorf("dataset: got %q", a.Dataset)
	}
	if a.Input != "data/raw/parts.csv" || a.Output != "data/processed/parts.csv" {
		t.Errorf("paths: got input=%q output=%q", a.Input, a.Output)
	}
	if a.Textfile != "data/processed/holecheck.prom" {
		t.Errorf("textfile: got %q", a.Textfile)
	}
	if a.Schedule != "@every 1h" {
		t.Errorf("schedule: got %q", a.Schedule)
	}
	want := compute.Config{
		WarningColumn: "warn",
		ErrorColumn:   "err",
		HolesColumn:   "bores",
		Thresholds:    compute.Thresholds{Poor: 8, Critical: 30},
		Workers:       4,
	}
	if a.Rules != want {
		t.Errorf("rules: got %+v, want %+v", a.Rules, want)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level: got %v", cfg.SlogLevel())
	}
}

func TestLoad_Defaults(t *testing.T) {
	yaml := `
annotator:
  input: in.csv
  output: out.csv
`
	cfg := loadFromString(t, yaml)

	if cfg.Annotator.Rules != compute.DefaultConfig() {
		t.Errorf("default rules: got %+v, want %+v", cfg.Annotator.Rules, compute.DefaultConfig())
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("default log_level: got %q", cfg.LogLevel)
	}
	if got := cfg.Annotator.DatasetName(); got != "in" {
		t.Errorf("DatasetName: got %q, want in", got)
	}
}

func TestLoad_PartialRulesKeepDefaults(t *testing.T) {
	yaml := `
annotator:
  input: in.csv
  output: out.csv
  rules:
    critical_ratio: 50
`
	cfg := loadFromString(t, yaml)

	r := cfg.Annotator.Rules
	if r.Critical != 50 {
		t.Errorf("critical_ratio: got %v, want 50", r.Critical)
	}
	if r.Poor != compute.DefaultPoorRatio {
		t.Errorf("poor_ratio: got %v, want default", r.Poor)
	}
	if r.WarningColumn != compute.DefaultWarningColumn {
		t.Errorf("warning_column: got %q, want default", r.WarningColumn)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing input", "annotator:\n  output: out.csv\n"},
		{"missing output", "annotator:\n  input: in.csv\n"},
		{"same paths", "annotator:\n  input: a/in.csv\n  output: a/./in.csv\n"},
		{"bad log level", "log_level: loud\nannotator:\n  input: in.csv\n  output: out.csv\n"},
		{"critical below poor", "annotator:\n  input: in.csv\n  output: out.csv\n  rules:\n    poor_ratio: 50\n"},
		{"zero workers", "annotator:\n  input: in.csv\n  output: out.csv\n  rules:\n    workers: 0\n"},
		{"malformed yaml", "annotator: [\n"},
		{"bad schedule", "annotator:\n  input: in.csv\n  output: out.csv\n  schedule: nightly\n"},
		{"publish bad url", "annotator:\n  input: in.csv\n  output: out.csv\n  publish:\n    endpoint: localhost:8080\n"},
		{"publish apikey without env", "annotator:\n  input: in.csv\n  output: out.csv\n  publish:\n    endpoint: http://h:8080\n    auth:\n      mode: apikey\n"},
		{"publish zero attempts", "annotator:\n  input: in.csv\n  output: out.csv\n  publish:\n    endpoint: http://h:8080\n    attempts: 0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadStringErr(t, tc.yaml); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_Publish(t *testing.T) {
	cfg := loadFromString(t, `
annotator:
  input: in.csv
  output: out.csv
  publish:
    endpoint: https://holecheck.example.com
    auth:
      mode: apikey
      key_env: HOLECHECK_API_KEY
`)
	p := cfg.Annotator.Publish
	if p.Endpoint != "https://holecheck.example.com" {
		t.Errorf("Endpoint: got %q", p.Endpoint)
	}
	if p.Attempts != DefaultPublishAttempts {
		t.Errorf("Attempts: got %d, want %d", p.Attempts, DefaultPublishAttempts)
	}
	if p.Auth.Header != DefaultPublishHeader {
		t.Errorf("Header: got %q, want default", p.Auth.Header)
	}
	t.Setenv("HOLECHECK_API_KEY", "k")
	if p.Auth.Key() != "k" {
		t.Errorf("Key: got %q", p.Auth.Key())
	}
}

func TestRead_SkipsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "annotator:\n  rules:\n    critical_ratio: 60\n")

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Annotator.Rules.Critical != 60 {
		t.Errorf("Critical: got %v, want 60", cfg.Annotator.Rules.Critical)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate: expected missing input error")
	}

	cfg.Annotator.Input = "in.csv"
	cfg.Annotator.Output = "out.csv"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate after overrides: %v", err)
	}
}

func TestDatasetName(t *testing.T) {
	tests := []struct {
		cfg  AnnotatorConfig
		want string
	}{
		{AnnotatorConfig{Dataset: "explicit", Input: "x.csv"}, "explicit"},
		{AnnotatorConfig{Input: "/data/raw/2023 DE_case_dataset.gz.parquet"}, "2023 DE_case_dataset"},
		{AnnotatorConfig{Input: "parts.jsonl"}, "parts"},
	}
	for _, tc := range tests {
		if got := tc.cfg.DatasetName(); got != tc.want {
			t.Errorf("DatasetName(%q): got %q, want %q", tc.cfg.Input, got, tc.want)
		}
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "annotator:\n  input: in.csv\n  output: out.csv\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			// A read can race a half-written file; wait for the final content.
			if c.Annotator.Rules.Critical != 55 {
				return
			}
			select {
			case got <- c:
			default:
			}
		})
	}()

	// Keep rewriting until the watcher, which registers asynchronously, reports.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case c := <-got:
			if c.Annotator.Input != "in.csv" {
				t.Errorf("reloaded input: got %q, want in.csv", c.Annotator.Input)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch returned error: %v", err)
			}
			return
		case <-tick.C:
			writeFile(t, path, "annotator:\n  input: in.csv\n  output: out.csv\n  rules:\n    critical_ratio: 55\n")
		case <-deadline:
			t.Fatal("no reload observed within 5s")
		}
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, content)
	return Load(path)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("config.example.yaml: %v", err)
	}
	if cfg.Annotator.Rules != (compute.Config{
		WarningColumn: compute.DefaultWarningColumn,
		ErrorColumn:   compute.DefaultErrorColumn,
		HolesColumn:   compute.DefaultHolesColumn,
		Thresholds:    compute.Thresholds{Poor: compute.DefaultPoorRatio, Critical: compute.DefaultCriticalRatio},
		Workers:       4,
	}) {
		t.Errorf("rules: got %+v", cfg.Annotator.Rules)
	}
}
