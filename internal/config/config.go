// Package config holds the run configuration of fieldnull.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/KromDaniel/fieldnull/internal/nuller"
	"github.com/KromDaniel/fieldnull/stream"
)

// Config represents one rewrite run.
type Config struct {
	// Input and output locations: local paths or afs URLs
	Input  string `json:"input"`
	Output string `json:"output"`

	// Matching
	Mode     string `json:"mode"`
	Template string `json:"template"`

	// Streaming
	Stream     bool `json:"stream"`
	BufferSize int  `json:"buffer_size"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	Verbose   bool   `json:"verbose"`

	// ApplyDSN, when set, runs the rewritten dump against PostgreSQL.
	ApplyDSN string `json:"apply_dsn"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode:       nuller.ModeRegexp.String(),
		Template:   nuller.DefaultTemplate,
		BufferSize: stream.DefaultBufferSize,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return fmt.Errorf("input location is required")
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output location is required")
	}
	if c.Input == c.Output {
		return fmt.Errorf("input and output must differ: %s", c.Input)
	}
	if _, err := nuller.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("invalid buffer size: %d", c.BufferSize)
	}
	if err := (stream.Config{BufferSize: c.BufferSize}).Validate(stream.MinBufferSize); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (want text or json)", c.LogFormat)
	}
	return nil
}

// ParseLevel parses a log level name, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the run logger from LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(c.LogLevel)}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
