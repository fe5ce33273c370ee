package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/blackboard/internal/port/notifier"
)

// Compile-time interface check.
var _ notifier.Notifier = (*Notifier)(nil)

func TestNotifierName(t *testing.T) {
	n := NewNotifier("", 0)
	if n.Name() != "discord" {
		t.Fatalf("expected 'discord', got %q", n.Name())
	}
}

func TestNotifyNotConfigured(t *testing.T) {
	n := NewNotifier("", 0)
	if err := n.Notify(context.Background(), "Coder", "x"); !errors.Is(err, notifier.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNotifySuccess(t *testing.T) {
	var got discordWebhook
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent) // Discord returns 204
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, 0)
	if err := n.Notify(context.Background(), "Reviewer", "review the parser"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "[TASK] Reviewer" || len(got.Embeds) != 1 {
		t.Fatalf("unexpected payload %+v", got)
	}
	if got.Embeds[0].Description != notifier.Mandate("Reviewer", "review the parser") {
		t.Fatalf("unexpected embed %+v", got.Embeds[0])
	}
}

func TestNotifyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, 0)
	if err := n.Notify(context.Background(), "Coder", "x"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestRegistered(t *testing.T) {
	n, err := notifier.New("discord", map[string]string{"webhook_url": "http://example.invalid", "timeout": "2s"})
	if err != nil {
		t.Fatal(err)
	}
	if n.Name() != "discord" {
		t.Fatalf("unexpected name %q", n.Name())
	}
}
