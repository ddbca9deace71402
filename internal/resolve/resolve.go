// Package resolve normalizes the "value or function" update and
// initializer shapes accepted across the engine API into concrete values.
package resolve

import "context"

// Update resolves an update description against the current value.
//
// Accepted shapes:
//   - func(any) any                          synchronous transform
//   - func(any) (any, error)                 fallible transform
//   - func(context.Context, any) (any, error) blocking transform
//   - anything else                          literal replacement
//
// No retries: a failing function propagates its error to the caller.
func Update(ctx context.Context, current any, update any) (any, error) {
	switch fn := update.(type) {
	case func(any) any:
		return fn(current), nil
	case func(any) (any, error):
		return fn(current)
	case func(context.Context, any) (any, error):
		return fn(ctx, current)
	default:
		return update, nil
	}
}

// Initial resolves a zero-argument initializer: a literal value, a
// producer, a fallible producer or a blocking producer.
func Initial(ctx context.Context, init any) (any, error) {
	switch fn := init.(type) {
	case func() any:
		return fn(), nil
	case func() (any, error):
		return fn()
	case func(context.Context) (any, error):
		return fn(ctx)
	default:
		return init, nil
	}
}
