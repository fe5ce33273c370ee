// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects used by the blackboard.
const (
	SubjectEvents         = "events"           // events.{type}: store change fan-out
	SubjectWorkerNotify   = "workers.notify"   // workers.notify.{role}: broadcast mandate
	SubjectAgentAssign    = "agents.assign"    // agents.assign.{agent_id}: addressed task snapshot
	SubjectTaskCompletion = "tasks.completion" // worker -> blackboard completion reports
)

// EventSubject returns the subject an event type is published on.
func EventSubject(eventType string) string { return SubjectEvents + "." + eventType }

// WorkerNotifySubject returns the subject mandates for role are published on.
// Spaces and dots in role names would split the subject, so they become '_'.
func WorkerNotifySubject(role string) string { return SubjectWorkerNotify + "." + token(role) }

// AgentAssignSubject returns the addressed subject for one agent.
func AgentAssignSubject(agentID string) string { return SubjectAgentAssign + "." + token(agentID) }

func token(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch c {
		case ' ', '.', '*', '>', '\t':
			b[i] = '_'
		}
	}
	return string(b)
}
