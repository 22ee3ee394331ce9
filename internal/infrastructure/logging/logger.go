package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/leonardpitzu/it600d/internal/infrastructure/config"
)

// Logger is the daemon's structured logger, a thin wrapper around
// slog.Logger. Every entry carries service and version fields so
// aggregated logs from several daemons stay attributable.
//
// All methods are safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from the logging section of the configuration.
//
// Format selects the handler: "text" for humans watching a terminal,
// anything else gets JSON. Output is "stdout", "stderr", or a file
// path; an unopenable file falls back to stdout with a note on stderr
// rather than failing startup, because a daemon that cannot log is
// worse than one logging to the wrong place.
func New(cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	out := openOutput(cfg.Output)

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "it600d"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// openOutput resolves the configured output destination.
func openOutput(output string) io.Writer {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "it600d: cannot open log file %q: %v; logging to stdout\n", output, err)
		return os.Stdout
	}
	return f
}

// parseLevel maps a config string to a slog.Level. Unrecognised values
// land on info so a typo never silences the log.
func parseLevel(level string) slog.Level {
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

// With returns a Logger that adds the given key-value pairs to every
// entry. Components take a scoped logger at construction:
//
//	pollLog := log.With("component", "poller")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a JSON stdout logger at info level for the window
// before the configuration file has been read.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
