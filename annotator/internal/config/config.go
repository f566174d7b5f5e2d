package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/holecheck/annotator/internal/schedule"
	"github.com/obsidianstack/holecheck/pkg/compute"
)

// Default values for optional fields.
const (
	DefaultLogLevel        = "info"
	DefaultPublishAttempts = 3
	DefaultPublishHeader   = "x-api-key"
)

// Config is the top-level annotator configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	Annotator AnnotatorConfig `yaml:"annotator"`
}

// AnnotatorConfig holds the batch job settings.
type AnnotatorConfig struct {
	// Dataset is a label for the run, used in logs and exported metrics.
	// Defaults to the input file name without its extension.
	Dataset string `yaml:"dataset"`

	// Input is the path of the part table to read (.csv, .jsonl, .ndjson, .json).
	Input string `yaml:"input"`

	// Output is the path the annotated table is written to.
	Output string `yaml:"output"`

	// Textfile is an optional path for a Prometheus textfile with the
	// aggregate report. Empty disables the export.
	Textfile string `yaml:"textfile"`

	// Schedule optionally re-runs the job on a cron schedule, e.g.
	// "@every 1h" or "0 2 * * *". Empty runs the job once.
	Schedule string `yaml:"schedule"`

	// Rules controls column names, ratio thresholds and parallelism.
	Rules compute.Config `yaml:"rules"`

	// Publish optionally reports each finished run to holecheck-server.
	Publish PublishConfig `yaml:"publish"`
}

// PublishConfig controls delivery of run reports to the server.
type PublishConfig struct {
	// Endpoint is the server base URL, e.g. http://localhost:8080.
	// Empty disables publishing.
	Endpoint string `yaml:"endpoint"`

	// Auth configures how the annotator authenticates to the server.
	Auth AuthConfig `yaml:"auth"`

	// Attempts is the maximum number of delivery attempts (default 3).
	Attempts int `yaml:"attempts"`
}

// AuthConfig specifies how requests to the server are authenticated.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv names the environment variable holding the API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to send the key in (default "x-api-key").
	Header string `yaml:"header"`
}

// Key returns the API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// DatasetName returns Dataset, or the input file's base name when unset.
func (a AnnotatorConfig) DatasetName() string {
	if a.Dataset != "" {
		return a.Dataset
	}
	base := filepath.Base(a.Input)
	for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values map to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Read parses path over the defaults without validating, for callers that
// still have to apply command-line overrides. Call Validate afterwards.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	return cfg, nil
}

// Default returns the default configuration for callers that run without
// a config file. Input and Output still have to be set before use.
func Default() *Config {
	return defaults()
}

// Validate checks a Config built by Default or Read.
func (c *Config) Validate() error {
	return validate(c)
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Annotator: AnnotatorConfig{
			Rules: compute.DefaultConfig(),
			Publish: PublishConfig{
				Attempts: DefaultPublishAttempts,
				Auth:     AuthConfig{Header: DefaultPublishHeader},
			},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log_level %q unknown: want debug|info|warn|error", cfg.LogLevel)
	}
	a := cfg.Annotator
	if a.Input == "" {
		return fmt.Errorf("annotator.input is required")
	}
	if a.Output == "" {
		return fmt.Errorf("annotator.output is required")
	}
	if filepath.Clean(a.Input) == filepath.Clean(a.Output) {
		return fmt.Errorf("annotator.output must differ from annotator.input")
	}
	if a.Schedule != "" {
		if err := schedule.Validate(a.Schedule); err != nil {
			return fmt.Errorf("annotator.schedule: %w", err)
		}
	}
	if err := a.Rules.Validate(); err != nil {
		return fmt.Errorf("annotator.rules: %w", err)
	}
	if err := validatePublish(a.Publish); err != nil {
		return fmt.Errorf("annotator.publish: %w", err)
	}
	return nil
}

func validatePublish(p PublishConfig) error {
	if p.Endpoint == "" {
		return nil
	}
	u, err := url.Parse(p.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint %q must be an http(s) URL", p.Endpoint)
	}
	switch p.Auth.Mode {
	case "apikey":
		if p.Auth.KeyEnv == "" {
			return fmt.Errorf("auth.key_env is required for mode apikey")
		}
	case "none", "":
	default:
		return fmt.Errorf("auth.mode %q unknown: want apikey|none", p.Auth.Mode)
	}
	if p.Attempts < 1 {
		return fmt.Errorf("attempts must be at least 1")
	}
	return nil
}
