// Package logger builds the zap loggers used by the command line tool.
// Library code never constructs loggers itself; it takes one through
// fhirxml.WithLogger and defaults to zap.NewNop.
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels accepted by New.
const (
	LevelNone   = "none"
	LevelNormal = "normal"
	LevelDebug  = "debug"
)

// Config selects the level and destination of a logger.
type Config struct {
	Level string
	// Destination is a file path; empty means standard error.
	Destination string
	// Append keeps existing file content instead of truncating it.
	Append bool
}

// New builds a console-encoded logger. The returned close function flushes
// the logger and releases the destination file, if any.
func New(cfg Config) (*zap.Logger, func(), error) {
	var level zapcore.Level
	switch cfg.Level {
	case LevelNone, "":
		return zap.NewNop(), func() {}, nil
	case LevelNormal:
		level = zapcore.InfoLevel
	case LevelDebug:
		level = zapcore.DebugLevel
	default:
		return nil, nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	var (
		out     io.Writer = os.Stderr
		closeFn           = func() {}
	)
	if cfg.Destination != "" {
		flags := os.O_CREATE | os.O_WRONLY
		if cfg.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(cfg.Destination, flags, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log destination: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	log := NewWithWriter(out, level)
	return log, func() {
		_ = log.Sync()
		closeFn()
	}, nil
}

// NewWithWriter builds a console-encoded logger writing to w.
func NewWithWriter(w io.Writer, level zapcore.Level) *zap.Logger {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(w), level)
	return zap.New(core)
}
