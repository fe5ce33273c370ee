package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/blackboard/internal/domain"
	"github.com/Strob0t/blackboard/internal/domain/task"
)

// Backend is the part of the completion gateway the A2A surface needs.
type Backend interface {
	IssueCommand(ctx context.Context, targetRole, description string) (string, error)
	Task(id string) (task.Task, error)
	Roles() []string
}

// Handler serves the A2A protocol endpoints.
type Handler struct {
	baseURL string
	version string
	backend Backend
}

// NewHandler creates an A2A handler.
func NewHandler(baseURL, version string, backend Backend) *Handler {
	return &Handler{baseURL: baseURL, version: version, backend: backend}
}

// MountRoutes registers A2A routes on the given chi router.
// These are mounted at the root level, not under /api/v1.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/.well-known/agent.json", h.handleAgentCard)
	r.Post("/a2a/tasks", h.handleCreateTask)
	r.Get("/a2a/tasks/{id}", h.handleGetTask)
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, BuildAgentCard(h.baseURL, h.version, h.backend.Roles()))
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Skill == "" {
		writeError(w, http.StatusBadRequest, "skill is required")
		return
	}
	desc := req.description()
	if desc == "" {
		writeError(w, http.StatusBadRequest, "input.description is required")
		return
	}

	id, err := h.backend.IssueCommand(r.Context(), req.Skill, desc)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "a2a create task failed", "skill", req.Skill, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.InfoContext(r.Context(), "a2a task created", "id", id, "client_id", req.ID, "skill", req.Skill)
	writeJSON(w, http.StatusCreated, TaskResponse{ID: id, Status: "queued"})
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.backend.Task(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, responseFor(&t))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
