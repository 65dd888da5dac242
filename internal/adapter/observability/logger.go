// Package observability constructs the process-wide structured logger.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig selects the log level and output encoding.
type LoggerConfig struct {
	// Level is one of "debug", "info", "warn", "error". Empty means "info".
	Level string

	// Format is "json" for machine-readable output or "console" for
	// development. Empty means "json".
	Format string
}

// NewLogger builds a zap logger from config. The returned logger is handed to
// every component; nothing else in the service constructs loggers.
func NewLogger(config LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if config.Level != "" {
		parsed, err := zapcore.ParseLevel(config.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", config.Level, err)
		}
		level = parsed
	}

	var zapConfig zap.Config
	switch config.Format {
	case "", "json":
		zapConfig = zap.NewProductionConfig()
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", config.Format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
