package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Strob0t/blackboard/internal/domain/event"
	"github.com/Strob0t/blackboard/internal/port/broadcast"
)

// EventNotifier fans store changes out to every subscribed observer.
// Delivery is best-effort: a failing or panicking observer is logged and
// skipped, and nothing is replayed to late subscribers.
type EventNotifier struct {
	mu        sync.RWMutex
	observers []broadcast.Broadcaster
}

// NewEventNotifier creates an EventNotifier with the given initial observers.
func NewEventNotifier(observers ...broadcast.Broadcaster) *EventNotifier {
	n := &EventNotifier{}
	for _, o := range observers {
		n.Subscribe(o)
	}
	return n
}

// Subscribe adds an observer. Observers run on whichever mutator is
// draining the store's outbox and should return quickly; wrap I/O-bound
// observers in broadcast.Async.
func (n *EventNotifier) Subscribe(o broadcast.Broadcaster) {
	if o == nil {
		return
	}
	n.mu.Lock()
	n.observers = append(n.observers, o)
	n.mu.Unlock()
}

// ObserverCount returns the number of subscribed observers.
func (n *EventNotifier) ObserverCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.observers)
}

// Emit delivers ev to every observer in subscription order.
func (n *EventNotifier) Emit(ctx context.Context, ev event.Event) {
	if n == nil {
		return
	}
	n.mu.RLock()
	observers := n.observers
	n.mu.RUnlock()

	for _, o := range observers {
		n.deliver(ctx, o, ev)
	}
}

func (n *EventNotifier) deliver(ctx context.Context, o broadcast.Broadcaster, ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event observer panicked", "type", ev.Type, "seq", ev.Seq, "panic", r)
		}
	}()
	o.BroadcastEvent(ctx, string(ev.Type), ev.Payload)
}
