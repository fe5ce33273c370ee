// Package planner defines the port for turning a free-form request into task descriptors.
package planner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Strob0t/blackboard/internal/domain/task"
)

// ErrEmptyPrompt is returned when a planner receives no request text.
var ErrEmptyPrompt = errors.New("planner: empty prompt")

// Planner produces an ordered list of task descriptors for a request.
type Planner interface {
	Name() string
	Plan(ctx context.Context, prompt string) ([]task.Descriptor, error)
}

// Factory builds a Planner from flat string configuration.
type Factory func(config map[string]string) (Planner, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a planner factory available by name.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("planner: duplicate registration for %q", name))
	}
	factories[name] = factory
}

// New creates a Planner by name.
func New(name string, config map[string]string) (Planner, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("planner: unknown kind %q", name)
	}
	return factory(config)
}

// Available returns the sorted names of all registered planners.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
