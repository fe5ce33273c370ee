package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	bbotel "github.com/Strob0t/blackboard/internal/adapter/otel"
	"github.com/Strob0t/blackboard/internal/domain"
	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/port/assignment"
	"github.com/Strob0t/blackboard/internal/port/notifier"
	"github.com/Strob0t/blackboard/internal/resilience"
)

// DispatchService turns one eligible task into an assignment: it claims an
// idle agent of the task's role, delivers the task to that agent, and
// notifies the role through the worker notifier.
type DispatchService struct {
	store    *EntityStore
	notifier notifier.Notifier
	channel  assignment.Channel
	breaker  *resilience.Breaker
	metrics  *bbotel.Metrics
}

// NewDispatchService creates a DispatchService. A nil channel drops addressed
// deliveries; a nil notifier makes every dispatch fail.
func NewDispatchService(store *EntityStore, n notifier.Notifier, ch assignment.Channel) *DispatchService {
	if ch == nil {
		ch = assignment.Discard{}
	}
	return &DispatchService{store: store, notifier: n, channel: ch}
}

// SetBreaker guards notifier calls with a circuit breaker.
func (s *DispatchService) SetBreaker(b *resilience.Breaker) { s.breaker = b }

// SetMetrics enables dispatch metrics.
func (s *DispatchService) SetMetrics(m *bbotel.Metrics) { s.metrics = m }

// Dispatch assigns and announces t. The task is moved to in_progress first
// if it is still pending; a task that is neither pending nor in_progress is
// left alone. Notification failures are folded into the task (status error,
// result = failure message) and a log entry under its role, and are also
// returned as a *domain.DispatchError. A failure never overwrites a report
// the worker already made. While the circuit breaker rejects calls the task
// goes back to pending and is picked up again on a later tick.
func (s *DispatchService) Dispatch(ctx context.Context, t task.Task) error {
	ctx, span := bbotel.StartDispatchSpan(ctx, t.ID, t.Role)
	defer span.End()
	start := time.Now()

	if !s.ensureStarted(ctx, t.ID) {
		slog.Debug("dispatch skipped: task no longer runnable", "task_id", t.ID)
		return nil
	}
	if s.breaker != nil && !s.breaker.Ready() {
		s.postpone(ctx, t, "")
		return nil
	}

	s.store.AddLog(ctx, t.Role, "Starting task: "+t.Description)

	var assignedTo string
	if a, ok := s.store.AssignIdleAgent(ctx, t.Role, t.ID); ok {
		assignedTo = a.ID
		snapshot, err := s.store.Task(t.ID)
		if err != nil {
			snapshot = t
		}
		if err := s.channel.Deliver(ctx, a.ID, snapshot); err != nil {
			return s.fail(ctx, t, assignedTo, fmt.Errorf("deliver to %s: %w", a.ID, err), span)
		}
		slog.Info("task assigned", "task_id", t.ID, "agent_id", a.ID, "role", t.Role)
	}

	if err := s.notify(ctx, t.Role, t.Description); err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			s.postpone(ctx, t, assignedTo)
			return nil
		}
		return s.fail(ctx, t, assignedTo, err, span)
	}

	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("role", t.Role))
		s.metrics.TasksDispatched.Add(ctx, 1, attrs)
		s.metrics.DispatchDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
	return nil
}

func (s *DispatchService) ensureStarted(ctx context.Context, id string) bool {
	if s.store.TryStartTask(ctx, id) {
		return true
	}
	cur, err := s.store.Task(id)
	return err == nil && cur.Status == task.StatusInProgress
}

func (s *DispatchService) notify(ctx context.Context, role, description string) error {
	if s.notifier == nil {
		return notifier.ErrNotConfigured
	}
	ctx, span := bbotel.StartNotifySpan(ctx, s.notifier.Name(), role)
	defer span.End()

	call := func() error { return s.notifier.Notify(ctx, role, description) }
	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// postpone returns a task the breaker kept from being announced to pending
// and frees the agent claimed for it.
func (s *DispatchService) postpone(ctx context.Context, t task.Task, agentID string) {
	if !s.store.ReturnToPending(ctx, t.ID) {
		return
	}
	if agentID != "" {
		s.store.ReleaseAgentForTask(ctx, t.ID)
	}
	slog.Debug("dispatch postponed: circuit open", "task_id", t.ID, "role", t.Role)
}

// fail marks the task errored, frees the claimed agent, and logs under the
// role. A task the worker already reported keeps its outcome.
func (s *DispatchService) fail(ctx context.Context, t task.Task, agentID string, cause error, span trace.Span) error {
	derr := &domain.DispatchError{Role: t.Role, Err: cause}
	msg := derr.Error()

	if s.store.FailIfInProgress(ctx, t.ID, msg) {
		if agentID != "" {
			s.store.ReleaseAgentForTask(ctx, t.ID)
		}
		s.store.AddLog(ctx, t.Role, fmt.Sprintf("Dispatch of task %s failed: %s", t.ID, msg))
		slog.Error("dispatch failed", "task_id", t.ID, "role", t.Role, "error", cause)
	} else {
		slog.Warn("dispatch failed after the task was reported", "task_id", t.ID, "role", t.Role, "error", cause)
	}

	span.RecordError(derr)
	span.SetStatus(codes.Error, msg)
	return derr
}
