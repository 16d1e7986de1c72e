// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger holds the shared zap logger. Per-item progress lines for
// the operator go to an io.Writer in the batch summaries; this logger carries
// diagnostics (commands run, durations, warnings).
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global *zap.SugaredLogger
	level  = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() {
	global = New(level)
}

// New builds a console-encoded sugared logger writing to stderr.
func New(enab zapcore.LevelEnabler) *zap.SugaredLogger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), enab)
	return zap.New(core).Sugar()
}

// L returns the shared logger.
func L() *zap.SugaredLogger {
	return global
}

// SetLevel adjusts the minimum level of the shared logger.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// ParseLevel converts a --log-level flag value to a zap level. The second
// return value reports whether the input was recognized.
func ParseLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}
