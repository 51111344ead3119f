// Package log builds the service's slog loggers. Records logged with a
// request context carry its correlation and request IDs.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/helixml/batvision/internal/config"
)

// New creates a logger writing to w in the given format. Pretty output is
// coloured only when w is a terminal.
func New(w io.Writer, format config.LogFormat, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch format {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = NewConsoleHandler(w, opts, isTerminal(w))
	}

	return slog.New(contextHandler{handler})
}

// Configure creates the server logger on stdout and installs it as the slog
// default.
func Configure(cfg config.AppConfig) *slog.Logger {
	logger := New(os.Stdout, cfg.LogFormat(), cfg.LogLevel())
	slog.SetDefault(logger)
	return logger
}

// Stderr creates a logger on stderr, for modes where stdout carries protocol
// traffic.
func Stderr(cfg config.AppConfig) *slog.Logger {
	return New(os.Stderr, cfg.LogFormat(), cfg.LogLevel())
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values mean INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
