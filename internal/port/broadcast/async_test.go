package broadcast_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/blackboard/internal/port/broadcast"
)

type recorder struct {
	mu    sync.Mutex
	types []string
	gate  chan struct{}
}

func (r *recorder) BroadcastEvent(_ context.Context, eventType string, _ any) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	r.types = append(r.types, eventType)
	r.mu.Unlock()
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.types)
}

func TestAsyncDeliversInOrder(t *testing.T) {
	rec := &recorder{}
	a := broadcast.NewAsync("test", rec, 16)
	for _, typ := range []string{"a", "b", "c"} {
		a.BroadcastEvent(context.Background(), typ, nil)
	}
	a.Close()

	if got := rec.got(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestAsyncDoesNotBlockOnSlowObserver(t *testing.T) {
	rec := &recorder{gate: make(chan struct{})}
	a := broadcast.NewAsync("test", rec, 1)

	done := make(chan struct{})
	go func() {
		for range 10 {
			a.BroadcastEvent(context.Background(), "x", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastEvent blocked behind a slow observer")
	}
	if a.DroppedCount() == 0 {
		t.Fatal("expected drops on a full buffer")
	}

	close(rec.gate)
	a.Close()
	a.BroadcastEvent(context.Background(), "late", nil)
	a.Close()
	if slices.Contains(rec.got(), "late") {
		t.Fatal("event after Close must be ignored")
	}
}

func TestAsyncContextSurvivesCancellation(t *testing.T) {
	type key struct{}
	var seen any
	var wg sync.WaitGroup
	wg.Add(1)
	obs := observerFunc(func(ctx context.Context, _ string, _ any) {
		seen = ctx.Value(key{})
		if ctx.Err() != nil {
			seen = "cancelled"
		}
		wg.Done()
	})
	a := broadcast.NewAsync("test", obs, 4)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "req-1"))
	cancel()
	a.BroadcastEvent(ctx, "x", nil)
	wg.Wait()

	if seen != "req-1" {
		t.Fatalf("expected context values kept and cancellation dropped, got %v", seen)
	}
}

type observerFunc func(ctx context.Context, eventType string, payload any)

func (f observerFunc) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	f(ctx, eventType, payload)
}
