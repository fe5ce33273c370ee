package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/blackboard/internal/port/broadcast"
)

// Message types besides the store event types, which pass through as-is.
const (
	TypeMessage           = "message"
	TypeSnapshot          = "snapshot"
	TypeToggleAutoTrigger = "toggle_auto_trigger"
)

const greetingText = "Connected to blackboard"

var _ broadcast.Broadcaster = (*Hub)(nil)

// greeting is the first frame a client receives.
type greeting struct {
	Data string `json:"data"`
}

// ToggleAutoTrigger is the payload of an inbound toggle_auto_trigger message.
type ToggleAutoTrigger struct {
	Enabled bool `json:"enabled"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
