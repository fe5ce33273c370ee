package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/blackboard/internal/domain"
	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/port/planner"
)

// PlanService feeds planner output into the store.
type PlanService struct {
	store   *EntityStore
	planner planner.Planner
}

// NewPlanService creates a PlanService. planner may be nil when only direct
// descriptor ingestion is used.
func NewPlanService(store *EntityStore, p planner.Planner) *PlanService {
	return &PlanService{store: store, planner: p}
}

// Plan asks the planner for descriptors for prompt and ingests them.
func (s *PlanService) Plan(ctx context.Context, prompt string) error {
	if prompt == "" {
		return domain.Validationf("prompt is required")
	}
	if s.planner == nil {
		return fmt.Errorf("plan: %w", domain.Validationf("no planner configured"))
	}

	s.store.AddLog(ctx, "Commander", "Planning task for: "+prompt)
	descs, err := s.planner.Plan(ctx, prompt)
	if err != nil {
		s.store.AddLog(ctx, "Commander", "Planning failed: "+err.Error())
		return fmt.Errorf("plan with %s: %w", s.planner.Name(), err)
	}

	n, err := s.Ingest(ctx, descs)
	if err != nil {
		s.store.AddLog(ctx, "Commander", "Planning failed: "+err.Error())
		return err
	}
	s.store.AddLog(ctx, "Commander", fmt.Sprintf("Planning complete. %d tasks created.", n))
	return nil
}

// Ingest validates every descriptor, then adds them in order. Validation
// happens before any task is added; a duplicate ID stops ingestion and
// keeps the tasks added before it. Returns the number of tasks added.
func (s *PlanService) Ingest(ctx context.Context, descs []task.Descriptor) (int, error) {
	seen := make(map[string]bool, len(descs))
	for i := range descs {
		if err := descs[i].Validate(); err != nil {
			return 0, err
		}
		if seen[descs[i].ID] {
			return 0, fmt.Errorf("plan: task %s listed twice: %w", descs[i].ID, domain.ErrDuplicateID)
		}
		seen[descs[i].ID] = true
	}

	for i := range descs {
		if err := s.store.AddTask(ctx, task.New(descs[i])); err != nil {
			return i, fmt.Errorf("plan: %w", err)
		}
	}
	slog.Info("plan ingested", "tasks", len(descs))
	return len(descs), nil
}
