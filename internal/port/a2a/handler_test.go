package a2a_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/port/a2a"
	"github.com/Strob0t/blackboard/internal/service"
)

func newTestRouter(t *testing.T) (*chi.Mux, *service.EntityStore) {
	t.Helper()
	store := service.NewEntityStore(service.NewEventNotifier())
	h := a2a.NewHandler("http://localhost:8000", "2.0.0", service.NewGatewayService(store))
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAgentCardListsRoles(t *testing.T) {
	r, store := newTestRouter(t)
	_ = store.AddTask(context.Background(), task.New(task.Descriptor{ID: "a", Role: "Coder"}))
	_, _ = store.RegisterAgent(context.Background(), "Reviewer")

	w := do(r, http.MethodGet, "/.well-known/agent.json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var card a2a.AgentCard
	if err := json.NewDecoder(w.Body).Decode(&card); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if card.Name != "Blackboard" || card.Version != "2.0.0" {
		t.Fatalf("unexpected card %+v", card)
	}
	if len(card.Skills) != 2 || card.Skills[0].ID != "Coder" || card.Skills[1].ID != "Reviewer" {
		t.Fatalf("unexpected skills %+v", card.Skills)
	}
}

func TestCreateAndGetTask(t *testing.T) {
	r, store := newTestRouter(t)

	w := do(r, http.MethodPost, "/a2a/tasks", `{"id":"client-1","skill":"Coder","input":{"prompt":"write hello world"}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp a2a.TaskResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "queued" || resp.ID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}

	got, err := store.Task(resp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != "Coder" || got.Description != "write hello world" {
		t.Fatalf("unexpected task %+v", got)
	}

	store.UpdateTaskStatus(context.Background(), resp.ID, task.StatusDone, "printed")
	w = do(r, http.MethodGet, "/a2a/tasks/"+resp.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status a2a.TaskResponse
	_ = json.NewDecoder(w.Body).Decode(&status)
	if status.Status != "completed" || status.Output["result"] != "printed" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestGetFailedTask(t *testing.T) {
	r, store := newTestRouter(t)
	_ = store.AddTask(context.Background(), task.New(task.Descriptor{ID: "a", Role: "Coder"}))
	store.UpdateTaskStatus(context.Background(), "a", task.StatusError, "boom")

	w := do(r, http.MethodGet, "/a2a/tasks/a", "")
	var status a2a.TaskResponse
	_ = json.NewDecoder(w.Body).Decode(&status)
	if status.Status != "failed" || status.Error != "boom" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	if w := do(r, http.MethodGet, "/a2a/tasks/nonexistent", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCreateTaskBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing skill", `{"input":{"prompt":"x"}}`},
		{"missing description", `{"skill":"Coder","input":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t)
			if w := do(r, http.MethodPost, "/a2a/tasks", tt.body); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}
