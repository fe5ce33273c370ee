// Package eventstore defines the port for the append-only event journal.
package eventstore

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one journaled state change.
type Record struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	RequestID  string          `json:"request_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Journal appends records. The blackboard never reads state back from it.
type Journal interface {
	Append(ctx context.Context, rec Record) error
}
