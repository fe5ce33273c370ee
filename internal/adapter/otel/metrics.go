package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Strob0t/blackboard/internal/domain/agent"
	"github.com/Strob0t/blackboard/internal/domain/event"
	"github.com/Strob0t/blackboard/internal/domain/task"
)

const meterName = "blackboard"

// Metrics holds all blackboard metric instruments.
type Metrics struct {
	TasksAdded       metric.Int64Counter
	TasksDispatched  metric.Int64Counter
	TasksCompleted   metric.Int64Counter
	TasksFailed      metric.Int64Counter
	AgentsRegistered metric.Int64Counter
	DispatchDuration metric.Float64Histogram

	// status remembers each task's last seen status so a repeated report
	// is not counted twice.
	mu     sync.Mutex
	status map[string]task.Status
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{status: make(map[string]task.Status)}
	var err error

	m.TasksAdded, err = meter.Int64Counter("blackboard.tasks.added",
		metric.WithDescription("Number of tasks added"))
	if err != nil {
		return nil, err
	}

	m.TasksDispatched, err = meter.Int64Counter("blackboard.tasks.dispatched",
		metric.WithDescription("Number of tasks dispatched"))
	if err != nil {
		return nil, err
	}

	m.TasksCompleted, err = meter.Int64Counter("blackboard.tasks.completed",
		metric.WithDescription("Number of transitions into done"))
	if err != nil {
		return nil, err
	}

	m.TasksFailed, err = meter.Int64Counter("blackboard.tasks.failed",
		metric.WithDescription("Number of transitions into error"))
	if err != nil {
		return nil, err
	}

	m.AgentsRegistered, err = meter.Int64Counter("blackboard.agents.registered",
		metric.WithDescription("Number of agents registered"))
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram("blackboard.dispatch.duration_seconds",
		metric.WithDescription("Dispatch duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// BroadcastEvent counts store changes, so Metrics can subscribe to the
// event notifier like any other observer.
func (m *Metrics) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	switch event.Type(eventType) {
	case event.TypeTaskAdded:
		if t, ok := payload.(task.Task); ok {
			m.swapStatus(t)
			m.TasksAdded.Add(ctx, 1, metric.WithAttributes(attribute.String("role", t.Role)))
		}
	case event.TypeTaskUpdated:
		t, ok := payload.(task.Task)
		if !ok || m.swapStatus(t) == t.Status {
			return
		}
		attrs := metric.WithAttributes(attribute.String("role", t.Role))
		switch t.Status {
		case task.StatusDone:
			m.TasksCompleted.Add(ctx, 1, attrs)
		case task.StatusError:
			m.TasksFailed.Add(ctx, 1, attrs)
		}
	case event.TypeAgentAdded:
		if a, ok := payload.(agent.Agent); ok {
			m.AgentsRegistered.Add(ctx, 1, metric.WithAttributes(attribute.String("role", a.Role)))
		}
	}
}

// swapStatus records t's status and returns the one seen before.
func (m *Metrics) swapStatus(t task.Task) task.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.status[t.ID]
	m.status[t.ID] = t.Status
	return prev
}
