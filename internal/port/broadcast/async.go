package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Async moves delivery to a slow Broadcaster onto its own goroutine.
// Events are buffered and handed to the inner observer in order; events
// arriving while the buffer is full are dropped and counted.
type Async struct {
	inner   Broadcaster
	name    string
	ch      chan asyncEvent
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

type asyncEvent struct {
	ctx       context.Context
	eventType string
	payload   any
}

// NewAsync wraps inner with a buffer of size events. name labels drop logs.
func NewAsync(name string, inner Broadcaster, size int) *Async {
	if size < 1 {
		size = 1
	}
	a := &Async{
		inner: inner,
		name:  name,
		ch:    make(chan asyncEvent, size),
		done:  make(chan struct{}),
	}
	go a.drain()
	return a
}

func (a *Async) drain() {
	defer close(a.done)
	for ev := range a.ch {
		a.deliver(ev)
	}
}

func (a *Async) deliver(ev asyncEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("async observer panicked", "observer", a.name, "type", ev.eventType, "panic", r)
		}
	}()
	a.inner.BroadcastEvent(ev.ctx, ev.eventType, ev.payload)
}

// BroadcastEvent enqueues the event and returns immediately. The context
// keeps its values but loses its cancellation.
func (a *Async) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.ch <- asyncEvent{ctx: context.WithoutCancel(ctx), eventType: eventType, payload: payload}:
	default:
		if a.dropped.Add(1) == 1 {
			slog.Warn("observer buffer full, dropping events", "observer", a.name)
		}
	}
}

// DroppedCount returns the number of events dropped on a full buffer.
func (a *Async) DroppedCount() int64 {
	return a.dropped.Load()
}

// Close stops accepting events and waits until the buffered ones have been
// delivered. Calling it more than once is safe.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()
	<-a.done
}
