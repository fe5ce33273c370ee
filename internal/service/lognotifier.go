package service

import (
	"context"

	"github.com/Strob0t/blackboard/internal/port/notifier"
)

var _ notifier.Notifier = (*LogNotifier)(nil)

// LogNotifier announces mandates as store log entries under "System". It
// never fails, so it is the fallback when no external notifier is set up.
type LogNotifier struct {
	store *EntityStore
}

// NewLogNotifier creates a LogNotifier writing into store.
func NewLogNotifier(store *EntityStore) *LogNotifier {
	return &LogNotifier{store: store}
}

// Name implements notifier.Notifier.
func (n *LogNotifier) Name() string { return "log" }

// Notify implements notifier.Notifier.
func (n *LogNotifier) Notify(ctx context.Context, role, description string) error {
	n.store.AddLog(ctx, "System", "Triggering "+role+"...")
	n.store.AddLog(ctx, role, notifier.Mandate(role, description))
	return nil
}
