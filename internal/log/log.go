package log

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a JSON slog logger with the given level. Output goes to
// stderr so that a caller's stdout stays free for payload data.
func New(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})

	return slog.New(handler)
}
