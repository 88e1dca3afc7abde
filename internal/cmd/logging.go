package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/runger/sdev/internal/config"
)

// newLogger returns the logger for one sdev invocation. The terminal belongs
// to the picker and to tmux, so logs go to a file unless toStderr is set.
// Every record carries a run attribute so one invocation can be followed
// through a shared log file.
func newLogger(cfg *config.Config, paths *config.Paths, toStderr bool) (*slog.Logger, func() error, error) {
	var (
		w     io.Writer = os.Stderr
		close           = func() error { return nil }
	)

	if !toStderr {
		path := cfg.Log.File
		if path == "" {
			path = paths.LogFile()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		close = f.Close
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	})
	l := slog.New(handler).With("run", uuid.NewString())
	return l, close, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
