package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Strob0t/blackboard/internal/port/messagequeue"
	"github.com/Strob0t/blackboard/internal/port/notifier"
)

var _ notifier.Notifier = (*WorkerNotifier)(nil)

// WorkerNotifier announces mandates on workers.notify.{role}. Any worker
// subscribed for the role may pick the task up.
type WorkerNotifier struct {
	queue messagequeue.Queue
}

// NewWorkerNotifier creates a WorkerNotifier over queue.
func NewWorkerNotifier(queue messagequeue.Queue) *WorkerNotifier {
	return &WorkerNotifier{queue: queue}
}

func (n *WorkerNotifier) Name() string { return "nats" }

// Notify implements notifier.Notifier.
func (n *WorkerNotifier) Notify(ctx context.Context, role, description string) error {
	if n.queue == nil {
		return notifier.ErrNotConfigured
	}
	data, err := json.Marshal(messagequeue.WorkerNotifyPayload{
		Role:        role,
		Description: description,
		Prompt:      notifier.Mandate(role, description),
	})
	if err != nil {
		return fmt.Errorf("marshal mandate: %w", err)
	}
	return n.queue.Publish(ctx, messagequeue.WorkerNotifySubject(role), data)
}
