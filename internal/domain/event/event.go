// Package event defines the change notifications emitted by the entity store.
package event

import "time"

// Type identifies the kind of state change.
type Type string

const (
	TypeTaskAdded     Type = "task_added"
	TypeTaskUpdated   Type = "task_updated"
	TypeAgentAdded    Type = "agent_added"
	TypeAgentUpdated  Type = "agent_updated"
	TypeAgentLog      Type = "agent_log"
	TypeConfigUpdated Type = "config_updated"
)

// Types lists every event type in a stable order.
func Types() []Type {
	return []Type{
		TypeTaskAdded, TypeTaskUpdated,
		TypeAgentAdded, TypeAgentUpdated,
		TypeAgentLog, TypeConfigUpdated,
	}
}

// Event is one state change. Payload holds a full snapshot of the affected
// entity (task.Task, agent.Agent, LogPayload or ConfigPayload).
type Event struct {
	Seq        uint64    `json:"seq"`
	Type       Type      `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LogPayload is the payload of an agent_log event.
type LogPayload struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// ConfigPayload is the payload of a config_updated event.
type ConfigPayload struct {
	AutoTrigger bool `json:"auto_trigger"`
}
