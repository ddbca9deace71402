// Package logging builds the structured loggers used across the engine
// and its adapters.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates a text logger writing to w at the given level. Common keys
// are standardized ("error" -> "err") so log processing stays uniform
// across packages.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// Default returns the standard application logger: Stderr, to keep log
// output separate from any Stdout payloads (CLI reports, JSON).
func Default(level slog.Level) *slog.Logger {
	return New(os.Stderr, level)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
