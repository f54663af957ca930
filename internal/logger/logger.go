// Package logger builds the service logger and carries request-scoped loggers
// through a context.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the output format and the fields stamped on every entry.
type Options struct {
	// Env is prod (JSON) or local/dev/test (console).
	Env string
	// Level overrides the environment default: debug, info, warn, error.
	Level string
	// Driver names the catalog backend: elastic, redis or memory.
	Driver string
}

// New builds a zap logger. Every entry carries the service name and the
// catalog driver; namespaces are added by the components that use them.
// Production output is unsampled.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch opts.Env {
	case "prod":
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "local", "dev", "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", opts.Env)
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	cfg.InitialFields = map[string]any{"service": "fuzzysuggest"}
	if opts.Driver != "" {
		cfg.InitialFields["driver"] = opts.Driver
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
