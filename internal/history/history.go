// Package history implements the bounded, truncating undo/redo stack over
// full-state snapshots.
package history

import "sync"

// DefaultLimit is the history bound used when no limit is configured.
const DefaultLimit = 350

// History is a linear undo/redo stack. Recording while in the middle of
// the stack discards the redo branch; exceeding the limit drops the oldest
// entries. It always holds at least the initial snapshot.
//
// Invariant: 0 <= index < len(entries) <= limit.
type History struct {
	mu      sync.Mutex
	entries []any
	index   int
	limit   int
}

// New creates a history seeded with the initial snapshot. Limits below 1
// fall back to DefaultLimit.
func New(initial any, limit int) *History {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &History{
		entries: []any{initial},
		limit:   limit,
	}
}

// Record truncates any redo branch past the current index, appends the
// snapshot, and drops the oldest entries if the limit is exceeded.
// Identical consecutive snapshots are accepted; no dedup is performed.
func (h *History) Record(state any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.index+1], state)
	if overflow := len(h.entries) - h.limit; overflow > 0 {
		h.entries = h.entries[overflow:]
	}
	h.index = len(h.entries) - 1
}

// Undo moves the index back by steps (clamped at 0) and returns the entry
// there. At the floor it is a no-op returning the current entry.
func (h *History) Undo(steps int) any {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.index = max(0, h.index-steps)
	return h.entries[h.index]
}

// Redo moves the index forward by steps (clamped at the end) and returns
// the entry there.
func (h *History) Redo(steps int) any {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.index = min(len(h.entries)-1, h.index+steps)
	return h.entries[h.index]
}

// CanUndo reports whether steps entries exist behind the current index.
func (h *History) CanUndo(steps int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index >= steps
}

// CanRedo reports whether steps entries exist ahead of the current index.
func (h *History) CanRedo(steps int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index+steps < len(h.entries)
}

// Current returns the entry at the current index.
func (h *History) Current() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
