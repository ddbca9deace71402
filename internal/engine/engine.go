// Package engine implements the form-state core: the update pipeline,
// status scoping, history recording and validation around a set of
// observable cells.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/formwork-dev/formwork/internal/history"
	"github.com/formwork-dev/formwork/internal/logging"
	"github.com/formwork-dev/formwork/internal/resolve"
	"github.com/formwork-dev/formwork/pkg/adapters/memory"
	"github.com/formwork-dev/formwork/pkg/domain"
	"github.com/formwork-dev/formwork/pkg/observability"
	"github.com/formwork-dev/formwork/pkg/path"
	"github.com/formwork-dev/formwork/pkg/ports"
)

// Engine owns the mutable form state and its surrounding records: initial
// snapshot, field metas, field/form statuses, validation errors and the
// undo/redo history. Each record lives in its own cell; reads and writes
// to one cell are atomic, but no mutual exclusion spans cells or
// overlapping calls. Two rapid mutations race last-write-wins: callers
// that need per-form serialization wrap the engine (see pkg/session).
type Engine struct {
	logger      *slog.Logger
	metrics     *observability.Collector
	validator   ports.Validator
	submit      ports.SubmitHandler
	limit       int
	cells       ports.CellFactory
	initializer any

	initOnce    sync.Once
	initialized atomic.Bool

	state    ports.Cell // any (nil until Init resolves)
	initial  ports.Cell // any
	metas    ports.Cell // map[string]domain.FieldMeta
	statuses ports.Cell // map[string]domain.FieldStatus
	status   ports.Cell // domain.FormStatus
	errs     ports.Cell // domain.Errors

	hist *history.History // assigned before initialized is set
}

// New creates an engine around an initializer (a value, func() any,
// func() (any, error) or func(context.Context) (any, error)). The engine
// is inert until Init runs.
func New(initializer any, opts ...Option) *Engine {
	e := &Engine{
		logger:      logging.NewNop(),
		limit:       history.DefaultLimit,
		cells:       memory.NewCell,
		initializer: initializer,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.state = e.cells(nil)
	e.initial = e.cells(nil)
	e.metas = e.cells(map[string]domain.FieldMeta{})
	e.statuses = e.cells(map[string]domain.FieldStatus{})
	e.status = e.cells(domain.FormStatus{})
	e.errs = e.cells(domain.Errors{})
	return e
}

// Init resolves the initializer, seeds the state, the initial snapshot
// and the history, then runs the first validation pass. It runs exactly
// once per engine instance; later calls are no-ops.
func (e *Engine) Init(ctx context.Context) error {
	var err error
	e.initOnce.Do(func() { err = e.doInit(ctx) })
	return err
}

func (e *Engine) doInit(ctx context.Context) error {
	e.setFormFlag(func(s *domain.FormStatus) { s.Initializing = true })
	defer e.setFormFlag(func(s *domain.FormStatus) { s.Initializing = false })

	v, err := resolve.Initial(ctx, e.initializer)
	if err != nil {
		return fmt.Errorf("resolve initial state: %w", err)
	}

	v = path.Clone(v)
	e.state.Set(v)
	e.initial.Set(path.Clone(v))
	e.hist = history.New(path.Clone(v), e.limit)
	e.initialized.Store(true)
	e.logger.Debug("form initialized", "history_limit", e.limit)

	_, err = e.runValidation(ctx)
	return err
}

// Initialized reports whether Init has completed successfully.
func (e *Engine) Initialized() bool {
	return e.initialized.Load()
}

// SetState resolves the update against the current state, writes the
// result, records a history snapshot and re-validates. The settingState
// flag is released on every exit path.
func (e *Engine) SetState(ctx context.Context, update any) error {
	if err := e.ensureInitialized(); err != nil {
		return err
	}

	e.setFormFlag(func(s *domain.FormStatus) { s.SettingState = true })
	defer e.setFormFlag(func(s *domain.FormStatus) { s.SettingState = false })

	next, err := resolve.Update(ctx, e.state.Get(), update)
	if err != nil {
		return fmt.Errorf("resolve update: %w", err)
	}

	next = path.Clone(next)
	e.state.Set(next)
	e.hist.Record(path.Clone(next))
	e.metrics.Mutation()
	e.logger.Debug("state updated")

	_, err = e.runValidation(ctx)
	return err
}

// SetFieldValue resolves the update against the field's current value and
// routes the resulting state through SetState. When the whole state is
// still nil the write is skipped. The per-path isSettingValue flag is
// released on every exit path.
func (e *Engine) SetFieldValue(ctx context.Context, p string, update any) error {
	if err := e.ensureInitialized(); err != nil {
		return err
	}

	e.setFieldFlag(p, func(s *domain.FieldStatus) { s.SettingValue = true })
	defer e.setFieldFlag(p, func(s *domain.FieldStatus) { s.SettingValue = false })

	current, _ := path.Get(e.state.Get(), p)
	next, err := resolve.Update(ctx, current, update)
	if err != nil {
		return fmt.Errorf("resolve field %s: %w", p, err)
	}

	snapshot := e.state.Get()
	if snapshot == nil {
		return nil
	}
	return e.SetState(ctx, path.Set(path.Clone(snapshot), p, next))
}

// SetFieldMeta resolves the update against the field's current meta
// record. Meta writes trigger neither history recording nor validation.
func (e *Engine) SetFieldMeta(ctx context.Context, p string, update any) error {
	if err := e.ensureInitialized(); err != nil {
		return err
	}

	e.setFieldFlag(p, func(s *domain.FieldStatus) { s.SettingMeta = true })
	defer e.setFieldFlag(p, func(s *domain.FieldStatus) { s.SettingMeta = false })

	next, err := resolve.Update(ctx, e.FieldMeta(p), update)
	if err != nil {
		return fmt.Errorf("resolve meta %s: %w", p, err)
	}
	meta, ok := next.(domain.FieldMeta)
	if !ok {
		return fmt.Errorf("%w: meta update for %s yielded %T", domain.ErrBadUpdate, p, next)
	}

	e.metas.Update(func(v any) any {
		out := copyMetas(v.(map[string]domain.FieldMeta))
		out[p] = meta
		return out
	})
	return nil
}

// SetFieldMetas resolves the update against the whole metas map.
func (e *Engine) SetFieldMetas(ctx context.Context, update any) error {
	if err := e.ensureInitialized(); err != nil {
		return err
	}

	e.setFormFlag(func(s *domain.FormStatus) { s.SettingMeta = true })
	defer e.setFormFlag(func(s *domain.FormStatus) { s.SettingMeta = false })

	next, err := resolve.Update(ctx, e.Metas(), update)
	if err != nil {
		return fmt.Errorf("resolve metas: %w", err)
	}
	metas, ok := next.(map[string]domain.FieldMeta)
	if !ok {
		return fmt.Errorf("%w: metas update yielded %T", domain.ErrBadUpdate, next)
	}

	e.metas.Set(copyMetas(metas))
	return nil
}

// Submit runs a validation pass and, when it passes, invokes the submit
// handler with the validated data. An invalid state is a silent no-op:
// the UI observes the outcome through Errors. A handler failure
// propagates after the submitting flag is released.
func (e *Engine) Submit(ctx context.Context) error {
	if err := e.ensureInitialized(); err != nil {
		return err
	}
	if e.submit == nil {
		return domain.ErrNoSubmitHandler
	}

	report, err := e.runValidation(ctx)
	if err != nil {
		return err
	}
	if !report.Valid {
		e.metrics.Submit(false)
		e.logger.Debug("submit rejected by validation")
		return nil
	}

	e.setFormFlag(func(s *domain.FormStatus) { s.Submitting = true })
	defer e.setFormFlag(func(s *domain.FormStatus) { s.Submitting = false })

	data := report.Data
	if data == nil {
		data = e.state.Get()
	}
	// The handler gets its own copy: a passing report may carry the live
	// state tree, and handler-side mutation must not leak back in.
	if err := e.submit(ctx, path.Clone(data)); err != nil {
		e.metrics.Submit(false)
		return fmt.Errorf("submit handler: %w", err)
	}
	e.metrics.Submit(true)
	return nil
}

// Reset re-runs the initializer and routes the fresh value through
// SetState. Re-running an async initializer is intentional: it supports
// resetting to freshly fetched defaults.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.ensureInitialized(); err != nil {
		return err
	}

	v, err := resolve.Initial(ctx, e.initializer)
	if err != nil {
		return fmt.Errorf("resolve initial state: %w", err)
	}
	e.initial.Set(path.Clone(v))
	return e.SetState(ctx, path.Clone(v))
}

// Undo moves the history back by steps and routes the snapshot through
// SetState, which re-validates and re-records.
func (e *Engine) Undo(ctx context.Context, steps int) error {
	if err := e.ensureInitialized(); err != nil {
		return err
	}
	if steps < 1 {
		steps = 1
	}
	snapshot := e.hist.Undo(steps)
	e.metrics.HistoryMove("undo")
	return e.SetState(ctx, path.Clone(snapshot))
}

// Redo moves the history forward by steps and routes the snapshot through
// SetState.
func (e *Engine) Redo(ctx context.Context, steps int) error {
	if err := e.ensureInitialized(); err != nil {
		return err
	}
	if steps < 1 {
		steps = 1
	}
	snapshot := e.hist.Redo(steps)
	e.metrics.HistoryMove("redo")
	return e.SetState(ctx, path.Clone(snapshot))
}

// CanUndo reports whether steps snapshots exist behind the current one.
func (e *Engine) CanUndo(steps int) bool {
	if !e.initialized.Load() {
		return false
	}
	if steps < 1 {
		steps = 1
	}
	return e.hist.CanUndo(steps)
}

// CanRedo reports whether steps snapshots exist ahead of the current one.
func (e *Engine) CanRedo(steps int) bool {
	if !e.initialized.Load() {
		return false
	}
	if steps < 1 {
		steps = 1
	}
	return e.hist.CanRedo(steps)
}

// WasModified reports whether the state deep-differs from the initial
// snapshot. Pure predicate, no side effects.
func (e *Engine) WasModified() bool {
	if !e.initialized.Load() {
		return false
	}
	return !path.Equal(e.state.Get(), e.initial.Get())
}

// --- Accessors ---

// State returns a deep copy of the current state; nil before Init
// resolves. The engine owns the state exclusively, so callers never get
// a mutable reference into it.
func (e *Engine) State() any {
	return path.Clone(e.state.Get())
}

// InitialState returns a deep copy of the modification baseline.
func (e *Engine) InitialState() any {
	return path.Clone(e.initial.Get())
}

// FieldValue reads the value at a dotted path. Resilient before
// initialization: absent paths read as nil.
func (e *Engine) FieldValue(p string) any {
	v, _ := path.Get(e.state.Get(), p)
	return path.Clone(v)
}

// Metas returns a copy of the metas map.
func (e *Engine) Metas() map[string]domain.FieldMeta {
	return copyMetas(e.metas.Get().(map[string]domain.FieldMeta))
}

// FieldMeta returns the meta record for a path, defaulting for absent
// paths.
func (e *Engine) FieldMeta(p string) domain.FieldMeta {
	m := e.metas.Get().(map[string]domain.FieldMeta)
	if meta, ok := m[p]; ok {
		return meta
	}
	return domain.DefaultFieldMeta()
}

// Statuses returns a copy of the per-field status map.
func (e *Engine) Statuses() map[string]domain.FieldStatus {
	src := e.statuses.Get().(map[string]domain.FieldStatus)
	out := make(map[string]domain.FieldStatus, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// FieldStatus returns the status record for a path, default when absent.
func (e *Engine) FieldStatus(p string) domain.FieldStatus {
	return e.statuses.Get().(map[string]domain.FieldStatus)[p]
}

// Status returns the form-level status flags.
func (e *Engine) Status() domain.FormStatus {
	return e.status.Get().(domain.FormStatus)
}

// Errors returns the latest published validation outcome. Like State, the
// returned value is a copy: mutating it does not alter what is published.
func (e *Engine) Errors() domain.Errors {
	return e.errs.Get().(domain.Errors).Copy()
}

// StateCell exposes the state cell so bindings can watch for changes.
func (e *Engine) StateCell() ports.Cell {
	return e.state
}

// --- internals ---

// runValidation executes one validation pass against the state at call
// time and publishes its outcome wholesale. The validating flag is scoped
// to this call: concurrent passes are not coalesced, and a later-settling
// pass may overwrite an earlier one's errors.
func (e *Engine) runValidation(ctx context.Context) (domain.Report, error) {
	if e.validator == nil {
		e.errs.Set(domain.Errors{})
		return domain.ValidReport(nil), nil
	}

	e.setFormFlag(func(s *domain.FormStatus) { s.Validating = true })
	defer e.setFormFlag(func(s *domain.FormStatus) { s.Validating = false })

	start := time.Now()
	report, err := e.validator.Validate(ctx, e.state.Get())
	if err != nil {
		return domain.Report{}, fmt.Errorf("validation: %w", err)
	}
	e.metrics.Validation(report.Valid, time.Since(start))
	e.errs.Set(report.Errors())
	return report, nil
}

func (e *Engine) ensureInitialized() error {
	if !e.initialized.Load() {
		return domain.ErrNotInitialized
	}
	return nil
}

func (e *Engine) setFormFlag(set func(*domain.FormStatus)) {
	e.status.Update(func(v any) any {
		s := v.(domain.FormStatus)
		set(&s)
		return s
	})
}

// setFieldFlag replaces the statuses map copy-on-write so readers holding
// the previous map never observe a concurrent write.
func (e *Engine) setFieldFlag(p string, set func(*domain.FieldStatus)) {
	e.statuses.Update(func(v any) any {
		src := v.(map[string]domain.FieldStatus)
		out := make(map[string]domain.FieldStatus, len(src)+1)
		for k, s := range src {
			out[k] = s
		}
		s := out[p]
		set(&s)
		out[p] = s
		return out
	})
}

func copyMetas(src map[string]domain.FieldMeta) map[string]domain.FieldMeta {
	out := make(map[string]domain.FieldMeta, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
