// Package task defines the Task domain entity.
package task

import (
	"slices"

	"github.com/Strob0t/blackboard/internal/domain"
)

// Status represents the current state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// IsTerminal reports whether no further forward transition exists.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusError:
		return true
	}
	return false
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusInProgress:
		return 1
	default:
		return 2
	}
}

// CanTransition reports whether a task may move from s to next.
// Status only moves forward; rewriting one terminal status with another is
// allowed so completion reports stay last-write-wins.
func (s Status) CanTransition(next Status) bool {
	if !next.Valid() {
		return false
	}
	if s.IsTerminal() {
		return next.IsTerminal()
	}
	return next.rank() >= s.rank()
}

// Task is a unit of work with a role requirement and a dependency set.
type Task struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Role         string   `json:"role"`
	Status       Status   `json:"status"`
	Dependencies []string `json:"dependencies"`
	Result       string   `json:"result,omitempty"`
}

// Clone returns a deep copy so callers never share the dependency slice.
func (t *Task) Clone() Task {
	c := *t
	c.Dependencies = slices.Clone(t.Dependencies)
	if c.Dependencies == nil {
		c.Dependencies = []string{}
	}
	return c
}

// Descriptor is the planner-facing shape of a task.
type Descriptor struct {
	ID           string   `json:"id" yaml:"id"`
	Description  string   `json:"description" yaml:"description"`
	Role         string   `json:"role" yaml:"role"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Validate checks the required descriptor fields.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return domain.Validationf("task id is required")
	}
	if d.Role == "" {
		return domain.Validationf("task %s: role is required", d.ID)
	}
	if slices.Contains(d.Dependencies, d.ID) {
		return domain.Validationf("task %s depends on itself", d.ID)
	}
	return nil
}

// New builds a pending task from a descriptor.
func New(d Descriptor) Task {
	deps := slices.Clone(d.Dependencies)
	if deps == nil {
		deps = []string{}
	}
	return Task{
		ID:           d.ID,
		Description:  d.Description,
		Role:         d.Role,
		Status:       StatusPending,
		Dependencies: deps,
	}
}
