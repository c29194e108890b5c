// Package telemetry wraps zap to give the fitting driver and CLI a
// single, consistently-configured structured logger.
package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger tuned for CLI use: console-encoded,
// colorized level names, debug level when verbose is true and info
// level otherwise.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true

	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}

// Noop returns a logger that discards everything, for tests and for
// library callers who do not want CLI-style output.
func Noop() *zap.Logger {
	return zap.NewNop()
}
