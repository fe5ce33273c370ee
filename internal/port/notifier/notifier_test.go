package notifier_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/blackboard/internal/port/notifier"
)

type recordingNotifier struct {
	name  string
	err   error
	calls []string
	order *[]string
}

var _ notifier.Notifier = (*recordingNotifier)(nil)

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(_ context.Context, role, description string) error {
	r.calls = append(r.calls, role+":"+description)
	if r.order != nil {
		*r.order = append(*r.order, r.name)
	}
	return r.err
}

func TestMandate(t *testing.T) {
	got := notifier.Mandate("Coder", "write the parser")
	want := "Agent Coder, your mission is: write the parser. Please execute and report back through the MCP tool."
	if got != want {
		t.Fatalf("Mandate = %q, want %q", got, want)
	}
}

func TestMultiCallsAllInOrder(t *testing.T) {
	var order []string
	a := &recordingNotifier{name: "a", order: &order}
	b := &recordingNotifier{name: "b", order: &order}

	if err := (notifier.Multi{a, b}).Notify(context.Background(), "Coder", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.calls) != 1 || len(b.calls) != 1 {
		t.Fatalf("expected one call each, got a=%v b=%v", a.calls, b.calls)
	}
	if strings.Join(order, ",") != "a,b" {
		t.Fatalf("expected a then b, got %v", order)
	}
}

func TestMultiStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingNotifier{name: "a", err: boom}
	b := &recordingNotifier{name: "b"}

	err := notifier.Multi{a, b}.Notify(context.Background(), "Coder", "x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "a: ") {
		t.Fatalf("expected notifier name prefix, got %q", err.Error())
	}
	if len(b.calls) != 0 {
		t.Fatal("second notifier must not be called after a failure")
	}
}

func TestEmptyMultiSucceeds(t *testing.T) {
	if err := (notifier.Multi{}).Notify(context.Background(), "Coder", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegisterAndNew(t *testing.T) {
	notifier.Register("test-notifier", func(cfg map[string]string) (notifier.Notifier, error) {
		return &recordingNotifier{name: cfg["name"]}, nil
	})

	n, err := notifier.New("test-notifier", map[string]string{"name": "configured"})
	if err != nil {
		t.Fatal(err)
	}
	if n.Name() != "configured" {
		t.Fatalf("expected configured, got %s", n.Name())
	}

	found := false
	for _, name := range notifier.Available() {
		if name == "test-notifier" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected test-notifier in Available()")
	}
}

func TestNewUnknownNotifier(t *testing.T) {
	if _, err := notifier.New("nonexistent", nil); err == nil {
		t.Fatal("expected error for unknown notifier")
	}
}
