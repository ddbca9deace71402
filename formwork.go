package formwork

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"

	"github.com/formwork-dev/formwork/internal/engine"
	"github.com/formwork-dev/formwork/internal/logging"
	"github.com/formwork-dev/formwork/pkg/domain"
	"github.com/formwork-dev/formwork/pkg/observability"
	"github.com/formwork-dev/formwork/pkg/ports"
)

// Form is the high-level entry point for the Formwork library. It wraps
// the internal engine and exposes the full mutation and inspection
// surface consumed by UI bindings.
type Form struct {
	engine *engine.Engine
	opts   []engine.Option
	logger *slog.Logger
	Name   string
}

// Option defines a functional option for configuring a Form.
type Option func(*Form)

// WithName labels the form; bindings use it to select a schema.
func WithName(name string) Option {
	return func(f *Form) {
		f.Name = name
	}
}

// WithValidator sets the schema validator run after initialization and
// after every accepted state mutation.
func WithValidator(v ports.Validator) Option {
	return func(f *Form) {
		f.opts = append(f.opts, engine.WithValidator(v))
	}
}

// WithSubmitHandler sets the handler invoked with the validated,
// schema-coerced data when Submit passes validation.
func WithSubmitHandler(h ports.SubmitHandler) Option {
	return func(f *Form) {
		f.opts = append(f.opts, engine.WithSubmitHandler(h))
	}
}

// WithHistoryLimit bounds the undo/redo stack (default 350, minimum 1).
func WithHistoryLimit(limit int) Option {
	return func(f *Form) {
		f.opts = append(f.opts, engine.WithHistoryLimit(limit))
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		f.logger = logger
	}
}

// WithMetrics attaches a prometheus collector to the engine.
func WithMetrics(c *observability.Collector) Option {
	return func(f *Form) {
		f.opts = append(f.opts, engine.WithMetrics(c))
	}
}

// WithCellFactory injects a custom observable-cell implementation,
// bypassing the default in-memory cells.
func WithCellFactory(factory ports.CellFactory) Option {
	return func(f *Form) {
		f.opts = append(f.opts, engine.WithCellFactory(factory))
	}
}

// New constructs a form around an initializer — a literal state, a
// func() any, a func() (any, error) or a func(context.Context) (any,
// error) — and resolves it before returning, seeding the state, the
// initial snapshot and the history, then running the first validation
// pass. Initialization happens exactly once per form.
func New(ctx context.Context, initializer any, opts ...Option) (*Form, error) {
	f := &Form{}
	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = logging.NewNop()
	}
	if f.Name != "" {
		f.logger = f.logger.With("form", f.Name)
	}
	f.opts = append(f.opts, engine.WithLogger(f.logger))

	f.engine = engine.New(initializer, f.opts...)
	if err := f.engine.Init(ctx); err != nil {
		return nil, fmt.Errorf("initialize form: %w", err)
	}
	return f, nil
}

// State returns a deep copy of the current form state.
func (f *Form) State() any { return f.engine.State() }

// InitialState returns a deep copy of the modification baseline.
func (f *Form) InitialState() any { return f.engine.InitialState() }

// SetState resolves an update (literal, func(any) any, func(any) (any,
// error) or func(context.Context, any) (any, error)) against the current
// state, applies it, records history and re-validates.
func (f *Form) SetState(ctx context.Context, update any) error {
	return f.engine.SetState(ctx, update)
}

// SetFieldValue updates the value at a dotted path.
func (f *Form) SetFieldValue(ctx context.Context, path string, update any) error {
	return f.engine.SetFieldValue(ctx, path, update)
}

// FieldValue reads the value at a dotted path; absent paths read as nil.
func (f *Form) FieldValue(path string) any { return f.engine.FieldValue(path) }

// FieldMetas returns a copy of the per-path meta map.
func (f *Form) FieldMetas() map[string]domain.FieldMeta { return f.engine.Metas() }

// SetFieldMetas updates the whole meta map.
func (f *Form) SetFieldMetas(ctx context.Context, update any) error {
	return f.engine.SetFieldMetas(ctx, update)
}

// SetFieldMeta updates the meta record of one path.
func (f *Form) SetFieldMeta(ctx context.Context, path string, update any) error {
	return f.engine.SetFieldMeta(ctx, path, update)
}

// FieldMeta returns the meta record of a path (default when absent).
func (f *Form) FieldMeta(path string) domain.FieldMeta { return f.engine.FieldMeta(path) }

// Errors returns the latest published validation outcome.
func (f *Form) Errors() domain.Errors { return f.engine.Errors() }

// FormStatus returns the form-level in-flight flags.
func (f *Form) FormStatus() domain.FormStatus { return f.engine.Status() }

// FieldStatuses returns a copy of the per-path status map.
func (f *Form) FieldStatuses() map[string]domain.FieldStatus { return f.engine.Statuses() }

// FieldStatus returns the status record of one path.
func (f *Form) FieldStatus(path string) domain.FieldStatus { return f.engine.FieldStatus(path) }

// Reset re-runs the initializer and replaces the state and baseline with
// the fresh result.
func (f *Form) Reset(ctx context.Context) error { return f.engine.Reset(ctx) }

// Submit validates and, on success, invokes the submit handler with the
// validated data. An invalid state is a silent no-op observable through
// Errors.
func (f *Form) Submit(ctx context.Context) error { return f.engine.Submit(ctx) }

// Undo steps back through history (default 1 step) and re-applies the
// snapshot through the regular update pipeline.
func (f *Form) Undo(ctx context.Context, steps ...int) error {
	return f.engine.Undo(ctx, first(steps))
}

// Redo steps forward through history (default 1 step).
func (f *Form) Redo(ctx context.Context, steps ...int) error {
	return f.engine.Redo(ctx, first(steps))
}

// CanUndo reports whether the given number of steps (default 1) can be
// undone.
func (f *Form) CanUndo(steps ...int) bool { return f.engine.CanUndo(first(steps)) }

// CanRedo reports whether the given number of steps (default 1) can be
// redone.
func (f *Form) CanRedo(steps ...int) bool { return f.engine.CanRedo(first(steps)) }

// WasModified reports whether the state deep-differs from the baseline.
func (f *Form) WasModified() bool { return f.engine.WasModified() }

// Watch returns a channel publishing each new state until ctx is done.
// Returns an error if the configured cell implementation is not
// watchable.
func (f *Form) Watch(ctx context.Context) (<-chan any, error) {
	w, ok := f.engine.StateCell().(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("configured cell does not support watching")
	}
	return w.Watch(ctx), nil
}

// DecodeSubmit adapts a typed handler to the SubmitHandler contract,
// decoding the validated data into T with mapstructure.
func DecodeSubmit[T any](handler func(ctx context.Context, data T) error) ports.SubmitHandler {
	return func(ctx context.Context, data any) error {
		var out T
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &out,
			WeaklyTypedInput: true,
			TagName:          "json",
		})
		if err != nil {
			return err
		}
		if err := decoder.Decode(data); err != nil {
			return fmt.Errorf("decode submit data: %w", err)
		}
		return handler(ctx, out)
	}
}

func first(steps []int) int {
	if len(steps) == 0 {
		return 1
	}
	return steps[0]
}
