package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/20after4/configdir"
	"github.com/rs/zerolog"
)

// newLogger writes to the configured log file. The TUI owns the terminal, so
// nothing is logged to stderr while it runs. The returned closer releases the
// file.
func newLogger(cfg Config) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	if level == zerolog.Disabled || cfg.Log.File == "" {
		return zerolog.Nop(), io.NopCloser(nil), nil
	}

	if err := configdir.MakePath(filepath.Dir(cfg.Log.File)); err != nil {
		return zerolog.Nop(), io.NopCloser(nil), err
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), io.NopCloser(nil), err
	}

	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, f, nil
}
