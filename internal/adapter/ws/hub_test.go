package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
)

type mockController struct {
	mu    sync.Mutex
	calls []bool
}

func (m *mockController) SetAutoTrigger(_ context.Context, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, enabled)
}

func (m *mockController) last() (bool, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return false, 0
	}
	return m.calls[len(m.calls)-1], len(m.calls)
}

// dial starts a server for hub and connects one client to it.
func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func readMessage(t *testing.T, c *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub("", nil)
	if hub.ConnectionCount() != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.ConnectionCount())
	}
}

func TestHubBroadcastNoConnections(t *testing.T) {
	hub := NewHub("", nil)
	hub.Broadcast(context.Background(), Message{Type: "test", Payload: []byte(`{"key":"value"}`)})
	hub.BroadcastEvent(context.Background(), "bad", make(chan int))
}

func TestHubRemoveNonexistent(t *testing.T) {
	hub := NewHub("", nil)
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.remove(&conn{cancel: cancel})
}

func TestHubGreetingAndSnapshot(t *testing.T) {
	hub := NewHub("*", nil)
	hub.SetSnapshot(func() any { return map[string]bool{"auto_trigger": true} })
	c := dial(t, hub)

	msg := readMessage(t, c)
	if msg.Type != TypeMessage || !strings.Contains(string(msg.Payload), greetingText) {
		t.Fatalf("unexpected greeting %s %s", msg.Type, msg.Payload)
	}
	msg = readMessage(t, c)
	if msg.Type != TypeSnapshot || string(msg.Payload) != `{"auto_trigger":true}` {
		t.Fatalf("unexpected snapshot %s %s", msg.Type, msg.Payload)
	}
}

func TestHubBroadcastEventReachesClient(t *testing.T) {
	hub := NewHub("", nil)
	c := dial(t, hub)
	readMessage(t, c) // greeting
	waitFor(t, func() bool { return hub.ConnectionCount() == 1 })

	hub.BroadcastEvent(context.Background(), "task_added", map[string]string{"id": "t1"})

	msg := readMessage(t, c)
	if msg.Type != "task_added" || string(msg.Payload) != `{"id":"t1"}` {
		t.Fatalf("unexpected event %s %s", msg.Type, msg.Payload)
	}
}

func TestHubToggleAutoTrigger(t *testing.T) {
	ctrl := &mockController{}
	hub := NewHub("", ctrl)
	c := dial(t, hub)
	readMessage(t, c)

	ctx := context.Background()
	_ = c.Write(ctx, websocket.MessageText, []byte(`not json`))
	_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"unknown","payload":{}}`))
	if err := c.Write(ctx, websocket.MessageText, []byte(`{"type":"toggle_auto_trigger","payload":{"enabled":true}}`)); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { _, n := ctrl.last(); return n == 1 })
	if enabled, _ := ctrl.last(); !enabled {
		t.Fatal("expected auto trigger enabled")
	}
}

func TestHubDisconnectRemovesConn(t *testing.T) {
	hub := NewHub("", nil)
	c := dial(t, hub)
	readMessage(t, c)
	waitFor(t, func() bool { return hub.ConnectionCount() == 1 })

	_ = c.Close(websocket.StatusNormalClosure, "bye")
	waitFor(t, func() bool { return hub.ConnectionCount() == 0 })
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub("", nil)
	_, cancel := context.WithCancel(context.Background())
	slow := &conn{send: make(chan []byte), cancel: cancel}
	hub.conns[slow] = struct{}{}

	hub.BroadcastEvent(context.Background(), "task_added", map[string]string{"id": "t1"})

	if hub.ConnectionCount() != 0 {
		t.Fatal("expected slow client dropped")
	}
}
