// Package pool provides a typed wrapper over sync.Pool.
// Used by the parser to recycle per-level scratch state between parses.
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a generic, type-safe object pool
type Pool[T any] struct {
	pool  sync.Pool
	reset func(*T) // Optional reset function called before reuse
	gets  atomic.Int64
	puts  atomic.Int64
}

// NewPool creates a new generic pool with the given factory function
func NewPool[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return factory()
			},
		},
	}
}

// NewPoolWithReset creates a pool with a reset function called before reuse
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Get retrieves an object from the pool or creates a new one
func (p *Pool[T]) Get() *T {
	obj := p.pool.Get().(*T)
	if p.reset != nil {
		p.reset(obj)
	}
	p.gets.Add(1)
	return obj
}

// Put returns an object to the pool for reuse
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	p.pool.Put(obj)
	p.puts.Add(1)
}

// Stats returns the number of Get and Put calls so far
func (p *Pool[T]) Stats() (gets, puts int64) {
	return p.gets.Load(), p.puts.Load()
}
