package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/port/assignment"
	"github.com/Strob0t/blackboard/internal/port/broadcast"
	"github.com/Strob0t/blackboard/internal/port/notifier"
	"github.com/Strob0t/blackboard/internal/service"
)

var (
	_ broadcast.Broadcaster = (*mockBroadcaster)(nil)
	_ notifier.Notifier     = (*mockNotifier)(nil)
	_ assignment.Channel    = (*mockChannel)(nil)
)

// mockBroadcaster captures BroadcastEvent calls for verification.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []mockEvent
}

type mockEvent struct {
	eventType string
	payload   any
}

func (m *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, mockEvent{eventType: eventType, payload: payload})
}

func (m *mockBroadcaster) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.eventType
	}
	return out
}

func (m *mockBroadcaster) all() []mockEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockEvent(nil), m.events...)
}

func (m *mockBroadcaster) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// mockNotifier records Notify calls and fails with err when set.
type mockNotifier struct {
	mu    sync.Mutex
	err   error
	calls []notifyCall
	block chan struct{}
	panic bool
}

type notifyCall struct {
	role        string
	description string
}

func (m *mockNotifier) Name() string { return "mock" }

func (m *mockNotifier) Notify(_ context.Context, role, description string) error {
	if m.block != nil {
		<-m.block
	}
	if m.panic {
		panic("notifier exploded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, notifyCall{role: role, description: description})
	return m.err
}

func (m *mockNotifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockChannel records addressed deliveries.
type mockChannel struct {
	mu         sync.Mutex
	err        error
	deliveries map[string][]task.Task
}

func (m *mockChannel) Deliver(_ context.Context, agentID string, t task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deliveries == nil {
		m.deliveries = make(map[string][]task.Task)
	}
	m.deliveries[agentID] = append(m.deliveries[agentID], t)
	return m.err
}

func (m *mockChannel) deliveredTo(agentID string) []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.Task(nil), m.deliveries[agentID]...)
}

func newTestStore() (*service.EntityStore, *mockBroadcaster) {
	bc := &mockBroadcaster{}
	return service.NewEntityStore(service.NewEventNotifier(bc)), bc
}

func mustAddTask(t testing.TB, s *service.EntityStore, id, role string, deps ...string) {
	t.Helper()
	err := s.AddTask(context.Background(), task.New(task.Descriptor{ID: id, Description: "do " + id, Role: role, Dependencies: deps}))
	if err != nil {
		t.Fatalf("add task %s: %v", id, err)
	}
}

func taskStatus(t testing.TB, s *service.EntityStore, id string) task.Status {
	t.Helper()
	got, err := s.Task(id)
	if err != nil {
		t.Fatalf("task %s: %v", id, err)
	}
	return got.Status
}
