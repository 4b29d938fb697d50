// Package logx configures structured logging. The TUI owns stdout, so
// logs go to a file under the config directory.
package logx

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Open creates a JSON slog logger writing to dir/roadassist.log. The
// returned closer flushes and closes the underlying file.
func Open(dir string, level string) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, "roadassist.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger := slog.New(handler).With(slog.String("service", "roadassist"))

	return logger, file.Close, nil
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
