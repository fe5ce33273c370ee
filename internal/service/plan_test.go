package service_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/Strob0t/blackboard/internal/domain"
	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/port/planner"
	"github.com/Strob0t/blackboard/internal/service"
)

var _ planner.Planner = (*mockPlanner)(nil)

type mockPlanner struct {
	descs  []task.Descriptor
	err    error
	prompt string
}

func (m *mockPlanner) Name() string { return "mock" }

func (m *mockPlanner) Plan(_ context.Context, prompt string) ([]task.Descriptor, error) {
	m.prompt = prompt
	return m.descs, m.err
}

func TestPlanIngestsInOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	p := &mockPlanner{descs: []task.Descriptor{
		{ID: "t1", Description: "design", Role: "Architect"},
		{ID: "t2", Description: "build", Role: "Coder", Dependencies: []string{"t1"}},
	}}
	svc := service.NewPlanService(s, p)

	if err := svc.Plan(ctx, "build a todo app"); err != nil {
		t.Fatal(err)
	}
	if p.prompt != "build a todo app" {
		t.Fatalf("planner got %q", p.prompt)
	}

	var ids []string
	for _, tk := range s.Tasks() {
		ids = append(ids, tk.ID)
		if tk.Status != task.StatusPending {
			t.Fatalf("%s: expected pending, got %s", tk.ID, tk.Status)
		}
	}
	if !slices.Equal(ids, []string{"t1", "t2"}) {
		t.Fatalf("unexpected order %v", ids)
	}

	logs := s.Logs("Commander")
	want := []string{"Planning task for: build a todo app", "Planning complete. 2 tasks created."}
	if !slices.Equal(logs, want) {
		t.Fatalf("unexpected Commander logs: %v", logs)
	}
}

func TestPlanPlannerError(t *testing.T) {
	s, _ := newTestStore()
	svc := service.NewPlanService(s, &mockPlanner{err: errors.New("model offline")})

	if err := svc.Plan(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if len(s.Tasks()) != 0 {
		t.Fatal("no tasks expected")
	}
}

func TestPlanRequiresPrompt(t *testing.T) {
	s, _ := newTestStore()
	svc := service.NewPlanService(s, &mockPlanner{})
	if err := svc.Plan(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestIngestValidatesBeforeAdding(t *testing.T) {
	tests := []struct {
		name    string
		descs   []task.Descriptor
		wantErr error
	}{
		{"missing role", []task.Descriptor{{ID: "a", Role: "Coder"}, {ID: "b"}}, domain.ErrValidation},
		{"self dependency", []task.Descriptor{{ID: "a", Role: "Coder", Dependencies: []string{"a"}}}, domain.ErrValidation},
		{"listed twice", []task.Descriptor{{ID: "a", Role: "Coder"}, {ID: "a", Role: "Coder"}}, domain.ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore()
			svc := service.NewPlanService(s, nil)
			n, err := svc.Ingest(context.Background(), tt.descs)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if n != 0 || len(s.Tasks()) != 0 {
				t.Fatalf("expected nothing added, got n=%d tasks=%d", n, len(s.Tasks()))
			}
		})
	}
}

func TestIngestStopsAtExistingID(t *testing.T) {
	s, _ := newTestStore()
	mustAddTask(t, s, "b", "Coder")
	svc := service.NewPlanService(s, nil)

	n, err := svc.Ingest(context.Background(), []task.Descriptor{
		{ID: "a", Role: "Coder"},
		{ID: "b", Role: "Coder"},
		{ID: "c", Role: "Coder"},
	})
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 added before the duplicate, got %d", n)
	}
	if _, err := s.Task("c"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("c must not be added after the duplicate")
	}
}
