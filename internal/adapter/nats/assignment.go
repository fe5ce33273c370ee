package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/port/assignment"
	"github.com/Strob0t/blackboard/internal/port/messagequeue"
)

var _ assignment.Channel = (*AssignmentChannel)(nil)

// AssignmentChannel delivers a task snapshot to one agent on
// agents.assign.{agent_id}.
type AssignmentChannel struct {
	queue messagequeue.Queue
}

// NewAssignmentChannel creates an AssignmentChannel over queue.
func NewAssignmentChannel(queue messagequeue.Queue) *AssignmentChannel {
	return &AssignmentChannel{queue: queue}
}

// Deliver implements assignment.Channel.
func (c *AssignmentChannel) Deliver(ctx context.Context, agentID string, t task.Task) error {
	data, err := json.Marshal(messagequeue.AgentAssignPayload{AgentID: agentID, Task: t})
	if err != nil {
		return fmt.Errorf("marshal assignment: %w", err)
	}
	if err := c.queue.Publish(ctx, messagequeue.AgentAssignSubject(agentID), data); err != nil {
		return fmt.Errorf("deliver to %s: %w", agentID, err)
	}
	return nil
}
