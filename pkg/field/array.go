package field

import (
	"context"
	"fmt"

	formwork "github.com/formwork-dev/formwork"
	"github.com/formwork-dev/formwork/internal/resolve"
)

// ArrayField extends a Field with list operations. Every operation is a
// single SetValue carrying a synchronous slice-producing function, so it
// composes with the same status, validation and history machinery as any
// other write. Index and item arguments accept the initializer shapes
// (literal, func() any, func() (any, error), func(context.Context)
// (any, error)) and are resolved before the operation executes.
type ArrayField struct {
	*Field
}

// NewArray creates an array field view for a dotted path.
func NewArray(form *formwork.Form, p string) *ArrayField {
	return &ArrayField{Field: New(form, p)}
}

// Items reads the current slice; an absent or non-slice value reads as
// empty.
func (a *ArrayField) Items() []any {
	items, _ := a.Value().([]any)
	return items
}

// Push appends an item.
func (a *ArrayField) Push(ctx context.Context, item any) error {
	v, err := resolve.Initial(ctx, item)
	if err != nil {
		return err
	}
	return a.apply(ctx, func(items []any) []any {
		out := make([]any, 0, len(items)+1)
		out = append(out, items...)
		return append(out, v)
	})
}

// Remove drops the element at index, shifting later elements left.
// Out-of-range indexes are a no-op.
func (a *ArrayField) Remove(ctx context.Context, index any) error {
	i, err := a.index(ctx, index)
	if err != nil {
		return err
	}
	return a.apply(ctx, func(items []any) []any {
		if i < 0 || i >= len(items) {
			return items
		}
		out := make([]any, 0, len(items)-1)
		out = append(out, items[:i]...)
		return append(out, items[i+1:]...)
	})
}

// Move removes the element at from and inserts it at to in the
// already-shortened slice.
func (a *ArrayField) Move(ctx context.Context, from, to any) error {
	f, err := a.index(ctx, from)
	if err != nil {
		return err
	}
	t, err := a.index(ctx, to)
	if err != nil {
		return err
	}
	return a.apply(ctx, func(items []any) []any {
		if f < 0 || f >= len(items) {
			return items
		}
		moved := items[f]
		shortened := make([]any, 0, len(items)-1)
		shortened = append(shortened, items[:f]...)
		shortened = append(shortened, items[f+1:]...)
		pos := clamp(t, 0, len(shortened))
		out := make([]any, 0, len(items))
		out = append(out, shortened[:pos]...)
		out = append(out, moved)
		return append(out, shortened[pos:]...)
	})
}

// Insert places an item at index without removing anything. The index is
// clamped to [0, len].
func (a *ArrayField) Insert(ctx context.Context, index, item any) error {
	i, err := a.index(ctx, index)
	if err != nil {
		return err
	}
	v, err := resolve.Initial(ctx, item)
	if err != nil {
		return err
	}
	return a.apply(ctx, func(items []any) []any {
		pos := clamp(i, 0, len(items))
		out := make([]any, 0, len(items)+1)
		out = append(out, items[:pos]...)
		out = append(out, v)
		return append(out, items[pos:]...)
	})
}

// Replace overwrites the element at index in place. Out-of-range indexes
// are a no-op.
func (a *ArrayField) Replace(ctx context.Context, index, item any) error {
	i, err := a.index(ctx, index)
	if err != nil {
		return err
	}
	v, err := resolve.Initial(ctx, item)
	if err != nil {
		return err
	}
	return a.apply(ctx, func(items []any) []any {
		if i < 0 || i >= len(items) {
			return items
		}
		out := make([]any, len(items))
		copy(out, items)
		out[i] = v
		return out
	})
}

// Swap exchanges the elements at two indexes. Out-of-range indexes are a
// no-op.
func (a *ArrayField) Swap(ctx context.Context, x, y any) error {
	i, err := a.index(ctx, x)
	if err != nil {
		return err
	}
	j, err := a.index(ctx, y)
	if err != nil {
		return err
	}
	return a.apply(ctx, func(items []any) []any {
		if i < 0 || i >= len(items) || j < 0 || j >= len(items) {
			return items
		}
		out := make([]any, len(items))
		copy(out, items)
		out[i], out[j] = out[j], out[i]
		return out
	})
}

// Empty replaces the field with an empty slice.
func (a *ArrayField) Empty(ctx context.Context) error {
	return a.apply(ctx, func([]any) []any { return []any{} })
}

// apply runs one list operation through SetValue as a synchronous
// transform. The current value is never mutated in place: operations
// build fresh slices, keeping history snapshots intact.
func (a *ArrayField) apply(ctx context.Context, op func(items []any) []any) error {
	return a.SetValue(ctx, func(cur any) any {
		items, _ := cur.([]any)
		return op(items)
	})
}

func (a *ArrayField) index(ctx context.Context, arg any) (int, error) {
	v, err := resolve.Initial(ctx, arg)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("array index for %s must be numeric, got %T", a.Path(), v)
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
