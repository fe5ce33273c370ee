// Package templateplan implements the built-in planner: a fixed four-step
// chain from analysis to review.
package templateplan

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/port/planner"
)

const providerName = "template"

// step is one link of the chain. Each step depends on the one before it.
type step struct {
	description string
	role        string
}

var chain = []step{
	{"Analyze Requirements", "Architect"},
	{"Setup Project Structure", "Executive"},
	{"Implement Core Logic", "Coder"},
	{"Review Implementation", "Reviewer"},
}

// Planner returns the same chain for every prompt. IDs are namespaced per
// plan so planning twice never collides.
type Planner struct {
	newPrefix func() string
}

// New creates the template planner.
func New() *Planner {
	return &Planner{newPrefix: func() string { return uuid.NewString()[:8] }}
}

func (p *Planner) Name() string { return providerName }

// Plan implements planner.Planner.
func (p *Planner) Plan(_ context.Context, prompt string) ([]task.Descriptor, error) {
	if prompt == "" {
		return nil, planner.ErrEmptyPrompt
	}

	descs := make([]task.Descriptor, len(chain))
	for i, s := range chain {
		descs[i] = task.Descriptor{
			ID:          "task_" + strconv.Itoa(i+1),
			Description: s.description,
			Role:        s.role,
		}
		if i > 0 {
			descs[i].Dependencies = []string{descs[i-1].ID}
		}
	}
	return planner.Namespace(p.newPrefix(), descs), nil
}

func init() {
	planner.Register(providerName, func(map[string]string) (planner.Planner, error) {
		return New(), nil
	})
}
