// Package ws implements the WebSocket adapter that streams blackboard events
// to dashboards and accepts their control messages.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	sendBuffer   = 256
	writeTimeout = 5 * time.Second
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Controller receives control messages sent by clients.
type Controller interface {
	SetAutoTrigger(ctx context.Context, enabled bool)
}

// SnapshotFunc returns the state sent to a client right after it connects.
type SnapshotFunc func() any

// conn wraps a single WebSocket connection. Outgoing frames are queued on
// send and written by one goroutine, so a slow client never stalls a
// broadcast.
type conn struct {
	ws     *websocket.Conn
	send   chan []byte
	cancel context.CancelFunc
}

// Hub manages all active WebSocket connections and broadcasts messages.
type Hub struct {
	mu         sync.RWMutex
	conns      map[*conn]struct{}
	origin     string
	controller Controller
	snapshot   SnapshotFunc
}

// NewHub creates a new WebSocket hub. origin restricts browser origins
// ("" or "*" accepts any); controller may be nil to ignore control messages.
func NewHub(origin string, controller Controller) *Hub {
	return &Hub{
		conns:      make(map[*conn]struct{}),
		origin:     origin,
		controller: controller,
	}
}

// SetSnapshot registers the state sent to clients on connect.
func (h *Hub) SetSnapshot(fn SnapshotFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

// HandleWS upgrades the request to a WebSocket and serves it until the
// client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{InsecureSkipVerify: h.origin == "" || h.origin == "*"}
	if !opts.InsecureSkipVerify {
		opts.OriginPatterns = []string{h.origin}
	}
	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	c := &conn{ws: ws, send: make(chan []byte, sendBuffer), cancel: cancel}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	snapshot := h.snapshot
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr)

	h.enqueue(c, TypeMessage, greeting{Data: greetingText})
	if snapshot != nil {
		h.enqueue(c, TypeSnapshot, snapshot())
	}

	go h.writeLoop(ctx, c)
	h.readLoop(ctx, c)
}

func (h *Hub) writeLoop(ctx context.Context, c *conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("websocket write failed", "error", err)
				h.remove(c)
				return
			}
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, c *conn) {
	defer func() {
		h.remove(c)
		_ = c.ws.Close(websocket.StatusNormalClosure, "")
	}()
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			return
		}
		h.handleInbound(ctx, data)
	}
}

func (h *Hub) handleInbound(ctx context.Context, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("websocket: ignoring malformed message", "error", err)
		return
	}
	switch msg.Type {
	case TypeToggleAutoTrigger:
		var p ToggleAutoTrigger
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Debug("websocket: bad toggle payload", "error", err)
			return
		}
		if h.controller != nil {
			h.controller.SetAutoTrigger(ctx, p.Enabled)
		}
	default:
		slog.Debug("websocket: unknown message type", "type", msg.Type)
	}
}

// Broadcast queues a message for all connected clients. Clients whose
// queue is full are disconnected.
func (h *Hub) Broadcast(_ context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	var slow []*conn
	for c := range h.conns {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("websocket client too slow, dropping")
		h.remove(c)
	}
}

func (h *Hub) enqueue(c *conn, msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame, err := json.Marshal(Message{Type: msgType, Payload: data})
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		h.remove(c)
		if c.ws != nil {
			_ = c.ws.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected")
	}
}
