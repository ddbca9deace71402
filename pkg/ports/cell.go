package ports

import "context"

// Cell is a mutable observable value slot. The engine keeps each of its
// shared resources (state, metas, statuses, errors) in its own Cell.
// Implementations must make every method atomic with respect to the cell;
// the engine never assumes atomicity across multiple cells.
type Cell interface {
	// Get returns the current value.
	Get() any

	// Set replaces the current value and republishes it.
	Set(v any)

	// Update applies fn to the current value atomically and republishes
	// the result, which is also returned.
	Update(fn func(any) any) any
}

// Watchable is implemented by cells that can notify dependents of
// changes. Bindings type-assert for it; the engine itself never watches.
type Watchable interface {
	// Watch returns a channel receiving each new value until ctx is done.
	// Slow receivers may miss intermediate values; the latest value is
	// always retrievable via Get.
	Watch(ctx context.Context) <-chan any
}

// CellFactory builds the cell for one engine resource, seeded with its
// initial value. Injecting a factory lets callers plug in their own
// reactive primitive.
type CellFactory func(initial any) Cell
