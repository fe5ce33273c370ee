package workpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolLimitsConcurrency(t *testing.T) {
	const limit = 3
	const workers = 10
	pool := NewPool(limit)

	var running atomic.Int32
	var maxSeen atomic.Int32

	for range workers {
		pool.Go(context.Background(), func() error {
			cur := running.Add(1)
			for {
				old := maxSeen.Load()
				if cur <= old || maxSeen.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return nil
		}, func(err error) { t.Errorf("unexpected error: %v", err) })
	}
	pool.Wait()

	if m := maxSeen.Load(); m > limit {
		t.Errorf("max concurrent = %d, want <= %d", m, limit)
	}
}

func TestPoolContextCancellation(t *testing.T) {
	pool := NewPool(1)
	ctx := context.Background()

	occupied := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = pool.Run(ctx, func() error {
			close(occupied)
			<-release
			return nil
		})
	}()
	<-occupied

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	err := pool.Run(cancelCtx, func() error {
		t.Error("fn should not have been called")
		return nil
	})
	if err == nil {
		t.Error("expected error from cancelled context")
	}

	close(release)
}

func TestGoReturnsBeforeSlotIsFree(t *testing.T) {
	pool := NewPool(1)
	release := make(chan struct{})
	pool.Go(context.Background(), func() error { <-release; return nil }, nil)

	started := make(chan struct{})
	go func() {
		pool.Go(context.Background(), func() error { return nil }, nil)
		close(started)
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("Go blocked while the pool was saturated")
	}
	close(release)
	pool.Wait()
}

func TestGoRecoversPanic(t *testing.T) {
	pool := NewPool(2)

	var mu sync.Mutex
	var errs []error
	onErr := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	var ran atomic.Bool
	pool.Go(context.Background(), func() error { panic("kaboom") }, onErr)
	pool.Go(context.Background(), func() error { ran.Store(true); return nil }, onErr)
	pool.Wait()

	if !ran.Load() {
		t.Fatal("sibling unit did not run")
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %d", len(errs))
	}
	var pe *PanicError
	if !errors.As(errs[0], &pe) {
		t.Fatalf("expected *PanicError, got %T", errs[0])
	}
	if pe.Value != "kaboom" {
		t.Fatalf("unexpected panic value: %v", pe.Value)
	}
}

func TestPoolClampMinLimit(t *testing.T) {
	pool := NewPool(0)
	if err := pool.Run(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("unexpected error with limit=0 (should clamp to 1): %v", err)
	}
}

func TestNilPoolRunsDirectly(t *testing.T) {
	var pool *Pool
	called := false
	if err := pool.Run(context.Background(), func() error { called = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("fn not called")
	}
}
