package a2a

import "github.com/Strob0t/blackboard/internal/domain/task"

// AgentCard describes an agent's capabilities per the A2A protocol.
type AgentCard struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	URL          string  `json:"url"`
	Version      string  `json:"version"`
	Skills       []Skill `json:"skills"`
	Capabilities struct {
		Streaming bool `json:"streaming"`
	} `json:"capabilities"`
}

// Skill describes a single capability of the agent.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputModes  []string `json:"inputModes"`
	OutputModes []string `json:"outputModes"`
}

// TaskRequest represents an incoming A2A task request. Skill names the
// target role; the description is read from input.description, falling
// back to input.prompt.
type TaskRequest struct {
	ID      string         `json:"id,omitempty"`
	Skill   string         `json:"skill"`
	Input   map[string]any `json:"input"`             //nolint:gosec // A2A protocol requires flexible input
	Context map[string]any `json:"context,omitempty"` //nolint:gosec // A2A protocol requires flexible context
}

func (r *TaskRequest) description() string {
	for _, key := range []string{"description", "prompt"} {
		if s, ok := r.Input[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// TaskResponse represents an A2A task response.
type TaskResponse struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`           // "queued", "running", "completed", "failed"
	Output map[string]any `json:"output,omitempty"` //nolint:gosec // A2A protocol requires flexible output
	Error  string         `json:"error,omitempty"`
}

func responseFor(t *task.Task) TaskResponse {
	resp := TaskResponse{ID: t.ID}
	switch t.Status {
	case task.StatusPending:
		resp.Status = "queued"
	case task.StatusInProgress:
		resp.Status = "running"
	case task.StatusDone:
		resp.Status = "completed"
		resp.Output = map[string]any{"result": t.Result, "role": t.Role}
	case task.StatusError:
		resp.Status = "failed"
		resp.Error = t.Result
	}
	return resp
}
