package ports

import (
	"context"
	"testing"
	"time"
)

// RunCellContract verifies that a CellFactory produces cells complying
// with the Cell semantics. Adapter test suites call this so every
// implementation is held to the same contract.
func RunCellContract(t *testing.T, factory CellFactory) {
	t.Helper()

	t.Run("Get returns seed", func(t *testing.T) {
		c := factory("seed")
		if got := c.Get(); got != "seed" {
			t.Errorf("expected seed, got %v", got)
		}
	})

	t.Run("Set replaces value", func(t *testing.T) {
		c := factory(nil)
		c.Set(42)
		if got := c.Get(); got != 42 {
			t.Errorf("expected 42, got %v", got)
		}
	})

	t.Run("Update is read-modify-write", func(t *testing.T) {
		c := factory(1)
		got := c.Update(func(v any) any { return v.(int) + 1 })
		if got != 2 {
			t.Errorf("expected 2 from Update, got %v", got)
		}
		if got := c.Get(); got != 2 {
			t.Errorf("expected 2 from Get, got %v", got)
		}
	})

	t.Run("Watch observes writes", func(t *testing.T) {
		c := factory(nil)
		w, ok := c.(Watchable)
		if !ok {
			t.Skip("cell is not watchable")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := w.Watch(ctx)

		c.Set("published")

		select {
		case got := <-ch:
			if got != "published" {
				t.Errorf("expected published, got %v", got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for watch notification")
		}
	})
}
