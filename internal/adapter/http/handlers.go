package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Strob0t/blackboard/internal/domain"
	"github.com/Strob0t/blackboard/internal/domain/agent"
	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/service"
	"github.com/Strob0t/blackboard/internal/workpool"
)

// maxConcurrentPlans bounds planner runs started from POST /plan.
const maxConcurrentPlans = 4

// Handlers holds the services the HTTP API exposes.
type Handlers struct {
	Store   *service.EntityStore
	Gateway *service.GatewayService
	Plans   *service.PlanService
	Version string

	planPool *workpool.Pool
}

// NewHandlers creates Handlers with a bounded pool for background planning.
func NewHandlers(store *service.EntityStore, gw *service.GatewayService, plans *service.PlanService, version string) *Handlers {
	return &Handlers{
		Store:    store,
		Gateway:  gw,
		Plans:    plans,
		Version:  version,
		planPool: workpool.NewPool(maxConcurrentPlans),
	}
}

// Wait blocks until background planning started by POST /plan has finished.
func (h *Handlers) Wait() { h.planPool.Wait() }

// Root reports that the service is up.
func (h *Handlers) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "online",
		"message": "Blackboard orchestration API v" + h.Version,
	})
}

// Health reports liveness plus a few counters.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"version":      h.Version,
		"tasks":        len(h.Store.Tasks()),
		"agents":       len(h.Store.Agents()),
		"auto_trigger": h.Store.AutoTrigger(),
	})
}

// --- planning ---

type planRequest struct {
	Prompt string `json:"prompt"`
}

// Plan starts planning in the background and returns immediately.
func (h *Handlers) Plan(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[planRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Prompt, "prompt") {
		return
	}

	ctx := context.WithoutCancel(r.Context())
	h.planPool.Go(ctx, func() error {
		return h.Plans.Plan(ctx, req.Prompt)
	}, func(err error) {
		slog.ErrorContext(ctx, "planning failed", "error", err)
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "planning_started"})
}

type ingestRequest struct {
	Tasks []task.Descriptor `json:"tasks"`
}

// IngestTasks adds caller-supplied descriptors directly.
func (h *Handlers) IngestTasks(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[ingestRequest](w, r)
	if !ok {
		return
	}
	if len(req.Tasks) == 0 {
		writeError(w, http.StatusBadRequest, "tasks is required")
		return
	}
	n, err := h.Plans.Ingest(r.Context(), req.Tasks)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"created": n})
}

// --- tasks ---

// ListTasks returns every task in insertion order.
func (h *Handlers) ListTasks(w http.ResponseWriter, _ *http.Request) {
	tasks := h.Store.Tasks()
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// GetTask returns a single task.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Store.Task(urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// NextTask returns the first active task for ?role=, or 204.
func (h *Handlers) NextTask(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if !requireField(w, role, "role") {
		return
	}
	t, ok := h.Gateway.FetchNextTask(role)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// PollTasks reports pending work for ?role=.
func (h *Handlers) PollTasks(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if !requireField(w, role, "role") {
		return
	}
	writeJSON(w, http.StatusOK, h.Gateway.PollTasks(role))
}

type completeRequest struct {
	Result string `json:"result"`
}

// CompleteTask marks a task done.
func (h *Handlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[completeRequest](w, r)
	if !ok {
		return
	}
	id := urlParam(r, "id")
	if err := h.Gateway.ReportCompletion(r.Context(), id, req.Result); err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type failRequest struct {
	Reason string `json:"reason"`
}

// FailTask marks a task errored.
func (h *Handlers) FailTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[failRequest](w, r)
	if !ok {
		return
	}
	id := urlParam(r, "id")
	if err := h.Gateway.ReportFailure(r.Context(), id, req.Reason); err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type commandRequest struct {
	TargetRole  string `json:"target_role"`
	Description string `json:"description"`
}

// IssueCommand creates a task for another role.
func (h *Handlers) IssueCommand(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[commandRequest](w, r)
	if !ok {
		return
	}
	id, err := h.Gateway.IssueCommand(r.Context(), req.TargetRole, req.Description)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"task_id": id})
}

// --- agents ---

// ListAgents returns every agent in registration order.
func (h *Handlers) ListAgents(w http.ResponseWriter, _ *http.Request) {
	agents := h.Store.Agents()
	if agents == nil {
		agents = []agent.Agent{}
	}
	writeJSON(w, http.StatusOK, agents)
}

type registerAgentRequest struct {
	Role string `json:"role"`
}

// RegisterAgent creates an idle agent for a role.
func (h *Handlers) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[registerAgentRequest](w, r)
	if !ok {
		return
	}
	a, err := h.Store.RegisterAgent(r.Context(), req.Role)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetAgent returns a single agent.
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.Agent(urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type agentStatusRequest struct {
	Status agent.Status `json:"status"`
	TaskID string       `json:"task_id"`
}

// UpdateAgentStatus sets an agent's status.
func (h *Handlers) UpdateAgentStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[agentStatusRequest](w, r)
	if !ok {
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.Status == agent.StatusBusy && req.TaskID == "" {
		writeError(w, http.StatusBadRequest, "task_id is required when busy")
		return
	}
	id := urlParam(r, "id")
	if !h.Store.UpdateAgentStatus(r.Context(), id, req.Status, req.TaskID) {
		writeDomainError(w, domain.ErrNotFound, "agent not found")
		return
	}
	a, err := h.Store.Agent(id)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// --- logs ---

// ListLogs returns every log source with its entries.
func (h *Handlers) ListLogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.AllLogs())
}

// GetLogs returns the entries of a single source. Unknown sources are empty.
func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	logs := h.Store.Logs(urlParam(r, "source"))
	if logs == nil {
		logs = []string{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// --- config ---

// GetConfig returns the runtime configuration.
func (h *Handlers) GetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"auto_trigger": h.Store.AutoTrigger()})
}

type autoTriggerRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetAutoTrigger toggles the auto trigger flag.
func (h *Handlers) SetAutoTrigger(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[autoTriggerRequest](w, r)
	if !ok {
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	h.Store.SetAutoTrigger(r.Context(), *req.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"auto_trigger": *req.Enabled})
}
