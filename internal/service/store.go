// Package service implements the blackboard: the entity store, event fan-out,
// dependency scheduling, dispatch and the worker-facing gateway.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Strob0t/blackboard/internal/domain"
	"github.com/Strob0t/blackboard/internal/domain/agent"
	"github.com/Strob0t/blackboard/internal/domain/event"
	"github.com/Strob0t/blackboard/internal/domain/task"
)

// maxIDAttempts bounds retries when a generated identifier collides.
const maxIDAttempts = 16

// EntityStore is the single source of truth for tasks, agents, logs and the
// auto-trigger flag. Every mutation is applied under one lock; the change
// events it produces are emitted after the lock is released, in mutation order.
type EntityStore struct {
	mu          sync.RWMutex
	tasks       []*task.Task
	taskIndex   map[string]int
	agents      []*agent.Agent
	agentIndex  map[string]int
	logs        map[string][]string
	logSources  []string
	autoTrigger bool
	seq         uint64

	// outbox holds events not yet emitted, in sequence order. It is appended
	// to while mu is held; whichever goroutine finds no drain running
	// empties it after releasing mu. Only outMu guards it, and outMu is never
	// held while observers run.
	outMu    sync.Mutex
	outbox   []pendingEvent
	draining bool
	events   *EventNotifier

	newAgentID func(role string) string
	now        func() time.Time
}

// NewEntityStore creates an empty store emitting through events (may be nil).
func NewEntityStore(events *EventNotifier) *EntityStore {
	return &EntityStore{
		taskIndex:  make(map[string]int),
		agentIndex: make(map[string]int),
		logs:       make(map[string][]string),
		events:     events,
		newAgentID: agent.NewID,
		now:        time.Now,
	}
}

// --- mutation helpers ---

// record builds an event and must be called with mu held for writing.
func (s *EntityStore) record(t event.Type, payload any) event.Event {
	s.seq++
	return event.Event{Seq: s.seq, Type: t, Payload: payload, OccurredAt: s.now()}
}

type pendingEvent struct {
	ctx context.Context
	ev  event.Event
}

// commit queues evs, releases mu and emits. It must be called with mu held
// for writing. If another goroutine is already emitting, it picks up evs
// and commit returns without waiting on observers.
func (s *EntityStore) commit(ctx context.Context, evs ...event.Event) {
	if len(evs) == 0 {
		s.mu.Unlock()
		return
	}
	s.outMu.Lock()
	for _, ev := range evs {
		s.outbox = append(s.outbox, pendingEvent{ctx: ctx, ev: ev})
	}
	if s.draining {
		s.outMu.Unlock()
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.outMu.Unlock()
	s.mu.Unlock()
	s.drain()
}

// drain emits queued events until the outbox is empty.
func (s *EntityStore) drain() {
	for {
		s.outMu.Lock()
		batch := s.outbox
		s.outbox = nil
		if len(batch) == 0 {
			s.draining = false
			s.outMu.Unlock()
			return
		}
		s.outMu.Unlock()
		for _, p := range batch {
			s.events.Emit(p.ctx, p.ev)
		}
	}
}

// appendLog must be called with mu held for writing.
func (s *EntityStore) appendLog(source, message string) event.Event {
	if _, ok := s.logs[source]; !ok {
		s.logSources = append(s.logSources, source)
	}
	s.logs[source] = append(s.logs[source], message)
	return s.record(event.TypeAgentLog, event.LogPayload{Source: source, Message: message})
}

// --- tasks ---

// AddTask appends t in insertion order. An empty status becomes pending.
// Returns domain.ErrDuplicateID if a task with the same ID exists.
func (s *EntityStore) AddTask(ctx context.Context, t task.Task) error {
	if t.ID == "" {
		return domain.Validationf("task id is required")
	}
	if t.Status == "" {
		t.Status = task.StatusPending
	}
	if !t.Status.Valid() {
		return domain.Validationf("task %s: unknown status %q", t.ID, t.Status)
	}

	s.mu.Lock()
	if _, exists := s.taskIndex[t.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("add task %s: %w", t.ID, domain.ErrDuplicateID)
	}
	stored := t.Clone()
	s.taskIndex[t.ID] = len(s.tasks)
	s.tasks = append(s.tasks, &stored)
	ev := s.record(event.TypeTaskAdded, stored.Clone())
	s.commit(ctx, ev)
	return nil
}

// UpdateTaskStatus sets the status of task id, and its result when result is
// non-empty and the new status is terminal. A missing task is a silent
// no-op; a backward transition is refused. Reports whether the update applied.
func (s *EntityStore) UpdateTaskStatus(ctx context.Context, id string, status task.Status, result string) bool {
	s.mu.Lock()
	idx, ok := s.taskIndex[id]
	if !ok {
		s.mu.Unlock()
		slog.Debug("update task status: task not found", "task_id", id)
		return false
	}
	t := s.tasks[idx]
	if !t.Status.CanTransition(status) {
		from := t.Status
		s.mu.Unlock()
		slog.Warn("update task status: transition refused", "task_id", id, "from", from, "to", status)
		return false
	}
	t.Status = status
	if result != "" && status.IsTerminal() {
		t.Result = result
	}
	ev := s.record(event.TypeTaskUpdated, t.Clone())
	s.commit(ctx, ev)
	return true
}

// TryStartTask moves task id from pending to in_progress in one atomic step.
// It returns false if the task is missing or no longer pending.
func (s *EntityStore) TryStartTask(ctx context.Context, id string) bool {
	return s.swapStatus(ctx, id, task.StatusPending, task.StatusInProgress, "")
}

// FailIfInProgress moves task id from in_progress to error with result. It
// returns false, changing nothing, once a worker has already reported the
// task or it never started.
func (s *EntityStore) FailIfInProgress(ctx context.Context, id, result string) bool {
	return s.swapStatus(ctx, id, task.StatusInProgress, task.StatusError, result)
}

// ReturnToPending hands an in_progress task back to the scheduler. It is the
// only backward transition and is used when a dispatch was skipped before
// any worker was told about the task.
func (s *EntityStore) ReturnToPending(ctx context.Context, id string) bool {
	return s.swapStatus(ctx, id, task.StatusInProgress, task.StatusPending, "")
}

// swapStatus sets task id to next only if its status is from.
func (s *EntityStore) swapStatus(ctx context.Context, id string, from, next task.Status, result string) bool {
	s.mu.Lock()
	idx, ok := s.taskIndex[id]
	if !ok || s.tasks[idx].Status != from {
		s.mu.Unlock()
		return false
	}
	t := s.tasks[idx]
	t.Status = next
	if result != "" {
		t.Result = result
	}
	ev := s.record(event.TypeTaskUpdated, t.Clone())
	s.commit(ctx, ev)
	return true
}

// Tasks returns a snapshot of all tasks in insertion order.
func (s *EntityStore) Tasks() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Task returns a snapshot of task id.
func (s *EntityStore) Task(id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.taskIndex[id]
	if !ok {
		return task.Task{}, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return s.tasks[idx].Clone(), nil
}

// --- agents ---

// RegisterAgent creates an idle agent for role with a fresh role-prefixed ID.
func (s *EntityStore) RegisterAgent(ctx context.Context, role string) (agent.Agent, error) {
	if role == "" {
		return agent.Agent{}, domain.Validationf("agent role is required")
	}

	s.mu.Lock()
	var id string
	for range maxIDAttempts {
		candidate := s.newAgentID(role)
		if _, taken := s.agentIndex[candidate]; !taken {
			id = candidate
			break
		}
	}
	if id == "" {
		s.mu.Unlock()
		return agent.Agent{}, fmt.Errorf("register agent %s: %w", role, domain.ErrDuplicateID)
	}

	a := &agent.Agent{ID: id, Role: role, Status: agent.StatusIdle}
	s.agentIndex[id] = len(s.agents)
	s.agents = append(s.agents, a)
	added := s.record(event.TypeAgentAdded, *a)
	logged := s.appendLog(role, fmt.Sprintf("Agent %s online.", id))
	snapshot := *a
	s.commit(ctx, added, logged)
	return snapshot, nil
}

// UpdateAgentStatus sets the status of agent id. CurrentTaskID is set to
// taskID when status is busy and cleared otherwise. A missing agent is a
// silent no-op. Reports whether the update applied.
func (s *EntityStore) UpdateAgentStatus(ctx context.Context, id string, status agent.Status, taskID string) bool {
	if !status.Valid() {
		slog.Warn("update agent status: unknown status", "agent_id", id, "status", status)
		return false
	}
	if status == agent.StatusBusy && taskID == "" {
		slog.Warn("update agent status: busy requires a task id", "agent_id", id)
		return false
	}

	s.mu.Lock()
	idx, ok := s.agentIndex[id]
	if !ok {
		s.mu.Unlock()
		slog.Debug("update agent status: agent not found", "agent_id", id)
		return false
	}
	a := s.agents[idx]
	a.Status = status
	a.CurrentTaskID = ""
	if status == agent.StatusBusy {
		a.CurrentTaskID = taskID
	}
	ev := s.record(event.TypeAgentUpdated, *a)
	s.commit(ctx, ev)
	return true
}

// AssignIdleAgent marks the first idle agent of role (registration order)
// busy with taskID, atomically. It returns false if none is idle.
func (s *EntityStore) AssignIdleAgent(ctx context.Context, role, taskID string) (agent.Agent, bool) {
	s.mu.Lock()
	for _, a := range s.agents {
		if !a.Available(role) {
			continue
		}
		a.Status = agent.StatusBusy
		a.CurrentTaskID = taskID
		snapshot := *a
		ev := s.record(event.TypeAgentUpdated, snapshot)
		s.commit(ctx, ev)
		return snapshot, true
	}
	s.mu.Unlock()
	return agent.Agent{}, false
}

// ReleaseAgentForTask returns the busy agent holding taskID to idle.
func (s *EntityStore) ReleaseAgentForTask(ctx context.Context, taskID string) (agent.Agent, bool) {
	if taskID == "" {
		return agent.Agent{}, false
	}
	s.mu.Lock()
	for _, a := range s.agents {
		if a.Status != agent.StatusBusy || a.CurrentTaskID != taskID {
			continue
		}
		a.Status = agent.StatusIdle
		a.CurrentTaskID = ""
		snapshot := *a
		ev := s.record(event.TypeAgentUpdated, snapshot)
		s.commit(ctx, ev)
		return snapshot, true
	}
	s.mu.Unlock()
	return agent.Agent{}, false
}

// Agents returns a snapshot of all agents in registration order.
func (s *EntityStore) Agents() []agent.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]agent.Agent, len(s.agents))
	for i, a := range s.agents {
		out[i] = *a
	}
	return out
}

// Agent returns a snapshot of agent id.
func (s *EntityStore) Agent(id string) (agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.agentIndex[id]
	if !ok {
		return agent.Agent{}, fmt.Errorf("agent %s: %w", id, domain.ErrNotFound)
	}
	return *s.agents[idx], nil
}

// --- logs and config ---

// AddLog appends message under source.
func (s *EntityStore) AddLog(ctx context.Context, source, message string) {
	s.mu.Lock()
	ev := s.appendLog(source, message)
	s.commit(ctx, ev)
}

// Logs returns a copy of the messages logged under source.
func (s *EntityStore) Logs(source string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.logs[source])
}

// LogSources returns every log source in first-seen order.
func (s *EntityStore) LogSources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.logSources)
}

// AllLogs returns a copy of the whole log map.
func (s *EntityStore) AllLogs() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string, len(s.logs))
	for src, msgs := range s.logs {
		out[src] = slices.Clone(msgs)
	}
	return out
}

// SetAutoTrigger sets the process-wide auto-trigger flag.
func (s *EntityStore) SetAutoTrigger(ctx context.Context, enabled bool) {
	s.mu.Lock()
	s.autoTrigger = enabled
	updated := s.record(event.TypeConfigUpdated, event.ConfigPayload{AutoTrigger: enabled})
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	logged := s.appendLog("System", "Auto-trigger "+state+".")
	s.commit(ctx, updated, logged)
}

// AutoTrigger reports the current auto-trigger flag.
func (s *EntityStore) AutoTrigger() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoTrigger
}
