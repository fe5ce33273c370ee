// Package workpool runs supervised background work with a concurrency limit.
package workpool

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// PanicError is returned for a unit of work that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Pool limits concurrent work using a weighted semaphore and tracks
// goroutines started with Go so they can be drained with Wait.
type Pool struct {
	sem   *semaphore.Weighted
	group errgroup.Group
}

// NewPool creates a Pool that allows at most limit concurrent units of work.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Run acquires a slot, runs fn, and releases the slot.
// Blocks if all slots are busy. Returns ctx.Err() if the context
// is cancelled while waiting for a slot. A panic in fn is returned
// as a *PanicError.
// If the pool is nil, fn is executed directly without concurrency control.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil || p.sem == nil {
		return safe(fn)
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return safe(fn)
}

// Go runs fn in its own goroutine through Run and returns immediately.
// The goroutine waits for a slot, never the caller. Failures, panics
// included, go to onErr; they never reach sibling units or Wait.
func (p *Pool) Go(ctx context.Context, fn func() error, onErr func(error)) {
	p.group.Go(func() error {
		if err := p.Run(ctx, fn); err != nil && onErr != nil {
			onErr(err)
		}
		return nil
	})
}

// Wait blocks until every unit started with Go has returned.
func (p *Pool) Wait() {
	_ = p.group.Wait()
}

func safe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
