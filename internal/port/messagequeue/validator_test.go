package messagequeue

import (
	"strings"
	"testing"
)

func TestValidateCompletion(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"valid", `{"task_id":"t1","result":"ok"}`, ""},
		{"valid failure", `{"task_id":"t1","error":"boom"}`, ""},
		{"missing task id", `{"result":"ok"}`, "task_id is required"},
		{"wrong shape", `"just a string"`, "schema validation failed"},
		{"invalid json", `{not valid`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(SubjectTaskCompletion, []byte(tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateWorkerNotify(t *testing.T) {
	data := []byte(`{"role":"Coder","description":"x","prompt":"Agent Coder, ..."}`)
	if err := Validate(WorkerNotifySubject("Coder"), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAgentAssign(t *testing.T) {
	data := []byte(`{"agent_id":"coder-1","task":{"id":"t1","role":"Coder","status":"in_progress","dependencies":[]}}`)
	if err := Validate(AgentAssignSubject("coder-1"), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(AgentAssignSubject("coder-1"), []byte(`[1,2]`)); err == nil {
		t.Fatal("expected schema error for array payload")
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	if err := Validate("unknown.subject", []byte(`{"foo":"bar"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSubjectTokens(t *testing.T) {
	if got := WorkerNotifySubject("Code Reviewer"); got != "workers.notify.Code_Reviewer" {
		t.Fatalf("got %q", got)
	}
	if got := AgentAssignSubject("a.b"); got != "agents.assign.a_b" {
		t.Fatalf("got %q", got)
	}
	if got := EventSubject("task_added"); got != "events.task_added" {
		t.Fatalf("got %q", got)
	}
}
