package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	bbotel "github.com/Strob0t/blackboard/internal/adapter/otel"
	"github.com/Strob0t/blackboard/internal/domain"
	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/workpool"
)

// Dispatcher hands one started task to workers.
type Dispatcher interface {
	Dispatch(ctx context.Context, t task.Task) error
}

// Scheduler periodically scans the store for pending tasks whose
// dependencies are all done, marks each in_progress, and dispatches it in
// the background. It is the only component that moves tasks out of pending.
type Scheduler struct {
	store      *EntityStore
	dispatcher Dispatcher
	interval   time.Duration
	pool       *workpool.Pool

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewScheduler creates a Scheduler ticking every interval with at most
// maxParallel dispatches in flight.
func NewScheduler(store *EntityStore, dispatcher Dispatcher, interval time.Duration, maxParallel int) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		interval:   interval,
		pool:       workpool.NewPool(maxParallel),
	}
}

// Start launches the tick loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.store.AddLog(ctx, "Orchestrator", "Service started.")

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.Tick(loopCtx)
			}
		}
	}(s.stopped)
	slog.Info("scheduler started", "interval", s.interval)
}

// Stop ends the tick loop and waits for in-flight dispatches to return.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.cancel, s.stopped = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-stopped
	s.pool.Wait()
	s.store.AddLog(ctx, "Orchestrator", "Service stopped.")
	slog.Info("scheduler stopped")
}

// Tick runs one scheduling pass and returns the IDs it started. Each
// started task is dispatched in its own goroutine; Tick does not wait.
func (s *Scheduler) Tick(ctx context.Context) []string {
	ctx, span := bbotel.StartTickSpan(ctx)
	defer span.End()

	var started []string
	for _, t := range task.Eligible(s.store.Tasks()) {
		if !s.store.TryStartTask(ctx, t.ID) {
			continue
		}
		started = append(started, t.ID)
		t.Status = task.StatusInProgress
		// In-flight dispatches are never cancelled, not even by Stop.
		dctx := context.WithoutCancel(ctx)
		s.pool.Go(dctx, func() error {
			return s.dispatcher.Dispatch(dctx, t)
		}, func(err error) { s.onDispatchError(dctx, t, err) })
	}
	if len(started) > 0 {
		slog.Debug("scheduler tick", "started", started)
	}
	return started
}

// Wait blocks until every dispatch started so far has returned.
func (s *Scheduler) Wait() { s.pool.Wait() }

// onDispatchError handles failures the dispatcher did not fold into the
// task itself: panics and anything that is not a dispatch notification error.
func (s *Scheduler) onDispatchError(ctx context.Context, t task.Task, err error) {
	if errors.Is(err, domain.ErrDispatchNotification) {
		return
	}

	var pe *workpool.PanicError
	if errors.As(err, &pe) {
		slog.Error("dispatch panicked", "task_id", t.ID, "panic", pe.Value, "stack", string(pe.Stack))
	} else {
		slog.Error("dispatch failed", "task_id", t.ID, "error", err)
	}
	msg := fmt.Sprintf("dispatch failed: %v", err)
	if !s.store.FailIfInProgress(ctx, t.ID, msg) {
		return
	}
	s.store.ReleaseAgentForTask(ctx, t.ID)
	s.store.AddLog(ctx, t.Role, fmt.Sprintf("Dispatch of task %s failed: %v", t.ID, err))
}
