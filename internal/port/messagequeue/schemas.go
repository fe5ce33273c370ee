package messagequeue

import "github.com/Strob0t/blackboard/internal/domain/task"

// WorkerNotifyPayload is the schema for workers.notify.{role} messages.
type WorkerNotifyPayload struct {
	Role        string `json:"role"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// AgentAssignPayload is the schema for agents.assign.{agent_id} messages.
type AgentAssignPayload struct {
	AgentID string    `json:"agent_id"`
	Task    task.Task `json:"task"`
}

// TaskCompletionPayload is the schema for tasks.completion messages.
// A non-empty Error reports a failure; Result is ignored in that case.
type TaskCompletionPayload struct {
	TaskID string `json:"task_id"`
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}
