// Package field provides path-scoped facades over a form: a Field view
// exposing value/meta/errors/status for one dotted path, and an Array
// Field view adding list operations that ride the same update pipeline.
package field

import (
	"context"

	formwork "github.com/formwork-dev/formwork"
	"github.com/formwork-dev/formwork/pkg/domain"
	"github.com/formwork-dev/formwork/pkg/path"
)

// Field is a pure derivation over one dotted path. It holds no state of
// its own; every read goes back to the form.
type Field struct {
	form *formwork.Form
	path string
}

// New creates a field view for a dotted path.
func New(form *formwork.Form, p string) *Field {
	return &Field{form: form, path: p}
}

// Path returns the dotted path this view is scoped to.
func (f *Field) Path() string { return f.path }

// Value reads the current field value; nil when the path is absent.
func (f *Field) Value() any { return f.form.FieldValue(f.path) }

// Meta returns the field's meta record (default when never written).
func (f *Field) Meta() domain.FieldMeta { return f.form.FieldMeta(f.path) }

// Errors returns the validation messages recorded for this path.
func (f *Field) Errors() []string { return f.form.Errors().Field(f.path) }

// Status returns the field's in-flight flags.
func (f *Field) Status() domain.FieldStatus { return f.form.FieldStatus(f.path) }

// WasModified reports whether the field's value deep-differs from its
// value in the initial state.
func (f *Field) WasModified() bool {
	cur, _ := path.Get(f.form.State(), f.path)
	initial, _ := path.Get(f.form.InitialState(), f.path)
	return !path.Equal(cur, initial)
}

// SetValue updates the field value. update accepts the same shapes as
// Form.SetState: a literal, a synchronous transform or a blocking
// transform of the current field value.
func (f *Field) SetValue(ctx context.Context, update any) error {
	return f.form.SetFieldValue(ctx, f.path, update)
}

// SetMeta updates the field's meta record.
func (f *Field) SetMeta(ctx context.Context, update any) error {
	return f.form.SetFieldMeta(ctx, f.path, update)
}

// Reset restores the field to its value in the initial state and clears
// its meta record back to the default.
func (f *Field) Reset(ctx context.Context) error {
	initial, _ := path.Get(f.form.InitialState(), f.path)
	if err := f.form.SetFieldValue(ctx, f.path, initial); err != nil {
		return err
	}
	return f.form.SetFieldMeta(ctx, f.path, domain.DefaultFieldMeta())
}
