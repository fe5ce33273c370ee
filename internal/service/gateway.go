package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/Strob0t/blackboard/internal/domain"
	"github.com/Strob0t/blackboard/internal/domain/task"
)

// PollResult answers "is there work for my role?".
type PollResult struct {
	Count       int        `json:"count"`
	FirstTask   *task.Task `json:"first_task,omitempty"`
	AutoTrigger bool       `json:"auto_trigger"`
}

// GatewayService is the surface external workers use to discover work,
// report outcomes, and create tasks for other roles.
type GatewayService struct {
	store *EntityStore
	newID func() string
}

// NewGatewayService creates a GatewayService over store.
func NewGatewayService(store *EntityStore) *GatewayService {
	return &GatewayService{
		store: store,
		newID: func() string { return uuid.NewString()[:8] },
	}
}

// ReportCompletion marks taskID done with result, whatever its current
// status, and frees the agent that was working on it. Calling it again
// overwrites the result. Returns domain.ErrNotFound for an unknown task.
func (s *GatewayService) ReportCompletion(ctx context.Context, taskID, result string) error {
	if _, err := s.store.Task(taskID); err != nil {
		return err
	}
	s.store.UpdateTaskStatus(ctx, taskID, task.StatusDone, result)
	s.store.ReleaseAgentForTask(ctx, taskID)
	s.store.AddLog(ctx, "System", fmt.Sprintf("Task %s completed.", taskID))
	slog.Info("task completed", "task_id", taskID)
	return nil
}

// ReportFailure marks taskID errored with reason and frees its agent.
func (s *GatewayService) ReportFailure(ctx context.Context, taskID, reason string) error {
	if _, err := s.store.Task(taskID); err != nil {
		return err
	}
	s.store.UpdateTaskStatus(ctx, taskID, task.StatusError, reason)
	s.store.ReleaseAgentForTask(ctx, taskID)
	s.store.AddLog(ctx, "System", fmt.Sprintf("Task %s failed: %s", taskID, reason))
	slog.Warn("task failed", "task_id", taskID, "reason", reason)
	return nil
}

// FetchNextTask returns the first pending or in_progress task of role in
// list order. It never mutates state.
func (s *GatewayService) FetchNextTask(role string) (task.Task, bool) {
	return task.FirstActiveForRole(s.store.Tasks(), role)
}

// IssueCommand creates a pending task for targetRole with no dependencies
// and returns its ID.
func (s *GatewayService) IssueCommand(ctx context.Context, targetRole, description string) (string, error) {
	if targetRole == "" {
		return "", domain.Validationf("target role is required")
	}
	if description == "" {
		return "", domain.Validationf("description is required")
	}

	for range maxIDAttempts {
		id := s.newID()
		err := s.store.AddTask(ctx, task.New(task.Descriptor{ID: id, Description: description, Role: targetRole}))
		if err == nil {
			s.store.AddLog(ctx, "System", fmt.Sprintf("Command issued to %s: %s", targetRole, description))
			return id, nil
		}
		if !errors.Is(err, domain.ErrDuplicateID) {
			return "", fmt.Errorf("issue command: %w", err)
		}
	}
	return "", fmt.Errorf("issue command: %w", domain.ErrDuplicateID)
}

// PollTasks counts the pending tasks of role and returns the first one.
func (s *GatewayService) PollTasks(role string) PollResult {
	pending := task.PendingForRole(s.store.Tasks(), role)
	res := PollResult{Count: len(pending), AutoTrigger: s.store.AutoTrigger()}
	if len(pending) > 0 {
		first := pending[0]
		res.FirstTask = &first
	}
	return res
}

// Task returns a snapshot of the task with id.
func (s *GatewayService) Task(id string) (task.Task, error) {
	return s.store.Task(id)
}

// Roles returns the sorted set of roles named by any task or agent.
func (s *GatewayService) Roles() []string {
	var roles []string
	for _, t := range s.store.Tasks() {
		roles = append(roles, t.Role)
	}
	for _, a := range s.store.Agents() {
		roles = append(roles, a.Role)
	}
	slices.Sort(roles)
	return slices.Compact(roles)
}
