// Package assignment defines the addressable per-agent delivery channel.
package assignment

import (
	"context"

	"github.com/Strob0t/blackboard/internal/domain/task"
)

// Channel hands a task snapshot to one specific agent.
type Channel interface {
	Deliver(ctx context.Context, agentID string, t task.Task) error
}

// Discard is a Channel that accepts and drops every delivery.
type Discard struct{}

// Deliver implements Channel.
func (Discard) Deliver(context.Context, string, task.Task) error { return nil }
