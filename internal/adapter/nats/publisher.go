package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Strob0t/blackboard/internal/port/broadcast"
	"github.com/Strob0t/blackboard/internal/port/messagequeue"
)

const publishTimeout = 5 * time.Second

var _ broadcast.Broadcaster = (*EventPublisher)(nil)

// eventEnvelope is the body published on events.{type}.
type eventEnvelope struct {
	Type       string    `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher mirrors store events onto events.{type} so out-of-process
// consumers can follow the blackboard.
type EventPublisher struct {
	queue messagequeue.Queue
	now   func() time.Time
}

// NewEventPublisher creates an EventPublisher over queue.
func NewEventPublisher(queue messagequeue.Queue) *EventPublisher {
	return &EventPublisher{queue: queue, now: time.Now}
}

// BroadcastEvent implements broadcast.Broadcaster. Failures are logged and
// each publish is bounded by publishTimeout. The publisher is wired behind a
// broadcast.Async so the broker never stalls the store.
func (p *EventPublisher) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(eventEnvelope{Type: eventType, Payload: payload, OccurredAt: p.now().UTC()})
	if err != nil {
		slog.ErrorContext(ctx, "event marshal failed", "type", eventType, "error", err)
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.queue.Publish(pctx, messagequeue.EventSubject(eventType), data); err != nil {
		slog.WarnContext(ctx, "event publish failed", "type", eventType, "error", err)
	}
}
