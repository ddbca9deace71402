package engine

import (
	"log/slog"

	"github.com/formwork-dev/formwork/pkg/observability"
	"github.com/formwork-dev/formwork/pkg/ports"
)

// Option configures an Engine.
type Option func(*Engine)

// WithValidator sets the schema validator run after every accepted
// mutation.
func WithValidator(v ports.Validator) Option {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithSubmitHandler sets the handler invoked with validated data on
// successful Submit.
func WithSubmitHandler(h ports.SubmitHandler) Option {
	return func(e *Engine) {
		e.submit = h
	}
}

// WithHistoryLimit bounds the undo/redo stack. Values below 1 fall back
// to the default.
func WithHistoryLimit(limit int) Option {
	return func(e *Engine) {
		e.limit = limit
	}
}

// WithLogger sets a structured logger for engine events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches a prometheus collector.
func WithMetrics(c *observability.Collector) Option {
	return func(e *Engine) {
		e.metrics = c
	}
}

// WithCellFactory injects the observable cell implementation backing the
// engine's shared records.
func WithCellFactory(f ports.CellFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.cells = f
		}
	}
}
