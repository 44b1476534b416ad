// Package logger builds the process-wide slog.Logger, adapted from the
// teacher's pkg/logger/logger.go: a level parser and a filtering handler
// that suppresses third-party library logs below debug so a noisy
// dependency doesn't drown out the engine's own trace of a query. The
// teacher's colored terminal handler is dropped: Shesha's primary audience
// is a traced QueryResult, not an interactive terminal, so the added
// rendering logic had no caller to justify it (see DESIGN.md).
package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

const sheshaPackagePrefix = "github.com/kadirpekel/shesha"

// ParseLevel converts a level name to a slog.Level, defaulting to Info for
// anything unrecognized.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// filteringHandler lets shesha's own logs through at the configured level,
// but only surfaces third-party library logs once the level is Debug.
type filteringHandler struct {
	handler  slog.Handler
	minLevel slog.Level
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.minLevel && h.handler.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.minLevel <= slog.LevelDebug || h.isOwnPackage(record.PC) {
		return h.handler.Handle(ctx, record)
	}
	return nil
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteringHandler{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}

func (h *filteringHandler) isOwnPackage(pc uintptr) bool {
	if pc == 0 {
		return false
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return false
	}
	file, _ := fn.FileLine(pc)
	return strings.Contains(fn.Name(), sheshaPackagePrefix) || strings.Contains(file, "shesha/")
}

// New builds a *slog.Logger for the given level name ("debug", "info",
// "warn", "error") and format ("json" or "text").
func New(level, format string) *slog.Logger {
	lvl := ParseLevel(level)

	opts := &slog.HandlerOptions{Level: lvl}
	var base slog.Handler
	if strings.ToLower(format) == "json" {
		base = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		base = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(&filteringHandler{handler: base, minLevel: lvl})
}
