package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/blackboard/internal/domain/event"
	"github.com/Strob0t/blackboard/internal/logger"
	"github.com/Strob0t/blackboard/internal/port/broadcast"
	"github.com/Strob0t/blackboard/internal/port/eventstore"
)

const appendTimeout = 5 * time.Second

var (
	_ eventstore.Journal    = (*EventStore)(nil)
	_ broadcast.Broadcaster = (*EventStore)(nil)
)

// EventStore implements eventstore.Journal using PostgreSQL (append-only).
type EventStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool, now: time.Now}
}

// Append inserts a record into blackboard_events.
func (s *EventStore) Append(ctx context.Context, rec eventstore.Record) error {
	taskID, agentID := subjectIDs(rec.Type, rec.Payload)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO blackboard_events (event_type, task_id, agent_id, payload, request_id, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.Type, taskID, agentID, rec.Payload, rec.RequestID, rec.OccurredAt)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. It serves operator
// tooling only.
func (s *EventStore) Recent(ctx context.Context, limit int) ([]eventstore.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event_type, payload, request_id, occurred_at
		 FROM blackboard_events ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []eventstore.Record
	for rows.Next() {
		var rec eventstore.Record
		if err := rows.Scan(&rec.Type, &rec.Payload, &rec.RequestID, &rec.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// BroadcastEvent journals a store event. Failures are logged and dropped.
func (s *EventStore) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	rec, err := NewRecord(ctx, eventType, payload, s.now())
	if err != nil {
		slog.ErrorContext(ctx, "journal marshal failed", "type", eventType, "error", err)
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
	defer cancel()
	if err := s.Append(actx, rec); err != nil {
		slog.WarnContext(ctx, "journal append failed", "type", eventType, "error", err)
	}
}

// NewRecord builds a journal record from an event, stamping the request ID
// carried by ctx.
func NewRecord(ctx context.Context, eventType string, payload any, at time.Time) (eventstore.Record, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return eventstore.Record{}, err
	}
	return eventstore.Record{
		Type:       eventType,
		Payload:    data,
		RequestID:  logger.RequestID(ctx),
		OccurredAt: at.UTC(),
	}, nil
}

// subjectIDs pulls the task or agent ID out of a snapshot payload so the
// journal can be filtered without JSON operators.
func subjectIDs(eventType string, payload json.RawMessage) (taskID, agentID string) {
	var probe struct {
		ID            string `json:"id"`
		CurrentTaskID string `json:"current_task_id"`
	}
	if json.Unmarshal(payload, &probe) != nil {
		return "", ""
	}
	switch event.Type(eventType) {
	case event.TypeTaskAdded, event.TypeTaskUpdated:
		return probe.ID, ""
	case event.TypeAgentAdded, event.TypeAgentUpdated:
		return probe.CurrentTaskID, probe.ID
	default:
		return "", ""
	}
}
