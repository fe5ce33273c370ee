package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Strob0t/blackboard/internal/domain/agent"
	"github.com/Strob0t/blackboard/internal/domain/event"
	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/logger"
)

func TestNewRecord(t *testing.T) {
	ctx := logger.WithRequestID(context.Background(), "req-9")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	rec, err := NewRecord(ctx, string(event.TypeAgentLog), event.LogPayload{Source: "System", Message: "hi"}, at)
	if err != nil {
		t.Fatal(err)
	}
	if rec.RequestID != "req-9" || rec.Type != "agent_log" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !rec.OccurredAt.Equal(at) || rec.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", rec.OccurredAt)
	}
	if string(rec.Payload) != `{"source":"System","message":"hi"}` {
		t.Fatalf("unexpected payload %s", rec.Payload)
	}

	if _, err := NewRecord(ctx, "x", make(chan int), at); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestSubjectIDs(t *testing.T) {
	mustJSON := func(v any) json.RawMessage {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		return b
	}
	tk := task.New(task.Descriptor{ID: "t1", Role: "Coder"})
	busy := agent.Agent{ID: "coder-1", Role: "Coder", Status: agent.StatusBusy, CurrentTaskID: "t1"}

	tests := []struct {
		name      string
		eventType event.Type
		payload   json.RawMessage
		wantTask  string
		wantAgent string
	}{
		{"task added", event.TypeTaskAdded, mustJSON(tk), "t1", ""},
		{"task updated", event.TypeTaskUpdated, mustJSON(tk), "t1", ""},
		{"agent busy", event.TypeAgentUpdated, mustJSON(busy), "t1", "coder-1"},
		{"log", event.TypeAgentLog, mustJSON(event.LogPayload{Source: "s", Message: "m"}), "", ""},
		{"garbage", event.TypeTaskAdded, json.RawMessage(`[`), "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTask, gotAgent := subjectIDs(string(tt.eventType), tt.payload)
			if gotTask != tt.wantTask || gotAgent != tt.wantAgent {
				t.Fatalf("got (%q,%q), want (%q,%q)", gotTask, gotAgent, tt.wantTask, tt.wantAgent)
			}
		})
	}
}
