// Package memory provides the default in-process implementation of the
// observable cell port: an RWMutex-guarded slot with subscriber fanout.
package memory

import (
	"context"
	"sync"

	"github.com/formwork-dev/formwork/pkg/ports"
)

// Cell implements ports.Cell and ports.Watchable. Safe for concurrent use.
type Cell struct {
	mu   sync.RWMutex
	v    any
	subs map[chan any]struct{}
}

// NewCell creates a cell seeded with the initial value.
func NewCell(initial any) ports.Cell {
	return &Cell{
		v:    initial,
		subs: make(map[chan any]struct{}),
	}
}

// Get returns the current value.
func (c *Cell) Get() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v
}

// Set replaces the value and notifies watchers.
func (c *Cell) Set(v any) {
	c.mu.Lock()
	c.v = v
	c.publishLocked(v)
	c.mu.Unlock()
}

// Update applies fn atomically and notifies watchers with the result.
func (c *Cell) Update(fn func(any) any) any {
	c.mu.Lock()
	c.v = fn(c.v)
	v := c.v
	c.publishLocked(v)
	c.mu.Unlock()
	return v
}

// Watch returns a channel receiving each new value until ctx is done.
// Sends are non-blocking: a receiver that falls behind misses intermediate
// values but can always Get the latest.
func (c *Cell) Watch(ctx context.Context) <-chan any {
	ch := make(chan any, 16)

	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.subs, ch)
		c.mu.Unlock()
	}()

	return ch
}

func (c *Cell) publishLocked(v any) {
	for ch := range c.subs {
		select {
		case ch <- v:
		default:
		}
	}
}
