// Package logging configures the process-wide slog logger. Output is JSON to
// stdout, optionally duplicated to a size-rotated log file so long-running
// scrapes keep a bounded on-disk history.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config represents the logging configuration.
type Config struct {
	Level    slog.Level
	FilePath string
	MaxSize  int64 // bytes per log file before rotation
	Backups  int
	Console  bool
}

// DefaultConfig returns the default logging configuration: info-level JSON on
// stdout, no file output.
func DefaultConfig() Config {
	return Config{
		Level:   slog.LevelInfo,
		MaxSize: 50 * 1024 * 1024,
		Backups: 3,
		Console: true,
	}
}

// ParseLevel converts a string log level to slog.Level, defaulting to info.
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

// NewLogger creates a logger with the given configuration.
func NewLogger(cfg Config) (*slog.Logger, error) {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, os.Stdout)
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0750); err != nil {
			return nil, err
		}
		fw, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSize, cfg.Backups)
		if err != nil {
			return nil, err
		}
		writers = append(writers, fw)
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = os.Stdout
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level})
	return slog.New(handler), nil
}

// SetDefault installs a logger built from cfg as the process default.
func SetDefault(cfg Config) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
