// Package atomicx provides a small typed wrapper over sync/atomic for
// values shared between goroutines without locks.
package atomicx

import "sync/atomic"

// Cell holds a value of type T that can be read and replaced
// atomically. The zero Cell is empty; Load on an empty Cell returns
// the zero T.
type Cell[T any] struct {
	p atomic.Pointer[T]
}

// NewCell returns a Cell holding v.
func NewCell[T any](v T) *Cell[T] {
	c := &Cell[T]{}
	c.Store(v)
	return c
}

// Load returns the current value, or the zero T when nothing has been
// stored yet.
func (c *Cell[T]) Load() T {
	if p := c.p.Load(); p != nil {
		return *p
	}
	var zero T
	return zero
}

// Store replaces the current value.
func (c *Cell[T]) Store(v T) {
	c.p.Store(&v)
}

// Swap replaces the current value and returns the previous one, or the
// zero T when the cell was empty.
func (c *Cell[T]) Swap(v T) T {
	if p := c.p.Swap(&v); p != nil {
		return *p
	}
	var zero T
	return zero
}
