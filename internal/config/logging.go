package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel accepts the level names used in config files, including the
// WARNING and CRITICAL spellings.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR", "CRITICAL":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// SetupLogger creates a dual-output logger: text to stderr when console
// logging is on, JSON lines to the configured file. The returned LevelVar
// can be adjusted while the process runs. The cleanup function closes the file.
func SetupLogger(cfg LoggingConfig) (*slog.Logger, *slog.LevelVar, func() error) {
	level := new(slog.LevelVar)
	if l, err := ParseLevel(cfg.Level); err == nil {
		level.Set(l)
	}

	var stderr io.Writer
	if cfg.Console {
		stderr = os.Stderr
	}

	if cfg.FilePath == "" {
		return SetupLoggerWithWriters(stderr, nil, level), level, func() error { return nil }
	}

	if dir := filepath.Dir(cfg.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("failed to create log directory, using stderr only", "error", err, "dir", dir)
			return SetupLoggerWithWriters(os.Stderr, nil, level), level, func() error { return nil }
		}
	}

	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		// Fall back to stderr-only if file fails
		slog.Error("failed to open log file, using stderr only", "error", err, "file", cfg.FilePath)
		return SetupLoggerWithWriters(os.Stderr, nil, level), level, func() error { return nil }
	}

	return SetupLoggerWithWriters(stderr, file, level), level, file.Close
}

// SetupLoggerWithWriters creates a logger with custom writers. A nil writer
// drops that output; with both nil the logger discards everything.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Leveler) *slog.Logger {
	var handlers []slog.Handler
	if stderr != nil {
		handlers = append(handlers, slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	}
	if file != nil {
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: jsonLineAttr,
		}))
	}
	if len(handlers) == 0 {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// jsonLineAttr renames the built-in keys to the record layout of the log
// file: level, message, time.
func jsonLineAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	if a.Key == slog.MessageKey {
		a.Key = "message"
	}
	return a
}
