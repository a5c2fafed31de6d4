// Package logging builds zerolog loggers for chainflow programs.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/chainflow/pkg/common/validation"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config contains logging configuration.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"` // stdout or stderr
}

// ApplyDefaults fills empty fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateOneOf("logging", "level", c.Level,
		"trace", "debug", "info", "warn", "error", "disabled"); err != nil {
		return err
	}
	if err := validation.ValidateOneOf("logging", "format", c.Format, FormatJSON, FormatConsole); err != nil {
		return err
	}
	return validation.ValidateOneOf("logging", "output", c.Output, "stdout", "stderr")
}

// New creates a logger from cfg. Invalid levels fall back to info.
func New(cfg Config) zerolog.Logger {
	cfg.ApplyDefaults()
	return newWithWriter(cfg, outputWriter(cfg.Output))
}

func newWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if strings.ToLower(cfg.Format) == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func outputWriter(output string) io.Writer {
	if output == "stdout" {
		return os.Stdout
	}
	return os.Stderr
}
