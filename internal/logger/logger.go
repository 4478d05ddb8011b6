// Package logger builds the zap loggers used by the API and the corpus scripts
// and carries request-scoped loggers through contexts.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the output format and identifies the process in every entry
type Config struct {
	Env     string // ENV: "prod"/"production" for JSON, anything known else for console
	Level   string // LOG_LEVEL: debug, info, warn or error; empty keeps the env default
	Service string // e.g. "api", "build-index"
	Version string
}

// New creates a logger. Production output is JSON with ISO8601 timestamps;
// development output is colored console text at debug level.
func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	switch strings.ToLower(cfg.Env) {
	case "prod", "production":
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "", "local", "dev", "development", "test":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown ENV %q", cfg.Env)
	}

	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}

	zc.InitialFields = map[string]any{}
	if cfg.Service != "" {
		zc.InitialFields["service"] = cfg.Service
	}
	if cfg.Version != "" {
		zc.InitialFields["version"] = cfg.Version
	}

	l, err := zc.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
