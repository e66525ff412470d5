package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line.
const ServiceName = "discount-codes"

// NewLogger creates a new logger based on the configuration.
func NewLogger(cfg LoggerConfig) zerolog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg LoggerConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}
