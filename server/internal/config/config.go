package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/holecheck/pkg/compute"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort     = 8080
	DefaultRunTTL       = 30 * time.Minute
	DefaultMaxBodyBytes = 32 << 20
	DefaultAuthHeader   = "x-api-key"
	DefaultLogLevel     = "info"
	DefaultCORSMaxAge   = 5 * time.Minute
)

// Config holds the server-side configuration parsed from the `server:` section
// of config.yaml. The `annotator:` key in the same file is ignored.
type Config struct {
	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and /metrics listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates REST clients.
	Auth AuthConfig `yaml:"auth"`

	// Runs controls in-memory retention of annotation runs.
	Runs RunsConfig `yaml:"runs"`

	// MaxBodyBytes caps the size of a request body (default 32 MiB).
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS lists browser origins allowed to call the API. Empty disables
	// CORS handling.
	CORS CORSConfig `yaml:"cors"`

	// Rules sets the flag columns, ratio thresholds and worker count used
	// by the evaluate, annotate and summarize endpoints.
	Rules compute.Config `yaml:"rules"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultAuthHeader
}

// CORSConfig controls cross-origin access for browser dashboards.
type CORSConfig struct {
	// AllowedOrigins may contain "*" or wildcard patterns such as
	// "https://*.example.com".
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxAge is how long browsers may cache a preflight response.
	// Default: 5m.
	MaxAge time.Duration `yaml:"max_age"`
}

// RunsConfig controls in-memory run retention.
type RunsConfig struct {
	// TTL is how long a run stays queryable after it was stored.
	// Default: 30m.
	TTL time.Duration `yaml:"ttl"`
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

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Server: ServerConfig{
			HTTPPort:     DefaultHTTPPort,
			Runs:         RunsConfig{TTL: DefaultRunTTL},
			MaxBodyBytes: DefaultMaxBodyBytes,
			CORS:         CORSConfig{MaxAge: DefaultCORSMaxAge},
			Rules:        compute.DefaultConfig(),
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log_level %q unknown: want debug|info|warn|error", cfg.LogLevel)
	}
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Runs.TTL <= 0 {
		return fmt.Errorf("server.runs.ttl must be positive")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	for _, o := range cfg.Server.CORS.AllowedOrigins {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("server.cors.allowed_origins contains an empty origin")
		}
	}
	if cfg.Server.CORS.MaxAge < 0 {
		return fmt.Errorf("server.cors.max_age must not be negative")
	}
	if err := cfg.Server.Rules.Validate(); err != nil {
		return fmt.Errorf("server.rules: %w", err)
	}
	return nil
}
