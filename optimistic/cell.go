// Package optimistic implements apply-locally, call-remotely, revert-on-failure updates.
package optimistic

import (
	"context"
	"sync"
)

// Cell holds a value that is mutated ahead of server confirmation.
type Cell[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	clone   func(T) T
}

// NewCell creates a cell. clone must return a copy that shares no mutable state with its input;
// it is used to take the snapshot restored on failure.
func NewCell[T any](initial T, clone func(T) T) *Cell[T] {
	return &Cell[T]{value: initial, clone: clone}
}

// Get returns a copy of the current value
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clone(c.value)
}

// Set replaces the current value
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.version++
}

// Apply snapshots the value, applies mutate immediately, then runs call. When call fails the snapshot is
// restored, unless a later Apply or Set has replaced the value in the meantime.
func (c *Cell[T]) Apply(ctx context.Context, mutate func(T) T, call func(ctx context.Context) error) error {
	c.mu.Lock()
	snapshot := c.clone(c.value)
	c.value = mutate(c.clone(c.value))
	c.version++
	applied := c.version
	c.mu.Unlock()

	if err := call(ctx); err != nil {
		c.mu.Lock()
		if c.version == applied {
			c.value = snapshot
			c.version++
		}
		c.mu.Unlock()
		return err
	}
	return nil
}
