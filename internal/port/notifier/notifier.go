// Package notifier defines the outbound "notify worker of role X" capability.
package notifier

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when a notifier is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Notifier delivers a task mandate to whoever works for a role.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "slack", "nats").
	Name() string

	// Notify tells workers of role that description needs doing.
	Notify(ctx context.Context, role, description string) error
}

// Mandate renders the instruction text handed to a worker.
func Mandate(role, description string) string {
	return fmt.Sprintf("Agent %s, your mission is: %s. Please execute and report back through the MCP tool.", role, description)
}

// Multi calls every notifier in order and stops at the first failure.
type Multi []Notifier

// Name implements Notifier.
func (m Multi) Name() string { return "multi" }

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, role, description string) error {
	for _, n := range m {
		if err := n.Notify(ctx, role, description); err != nil {
			return fmt.Errorf("%s: %w", n.Name(), err)
		}
	}
	return nil
}

// Func adapts a plain function to the Notifier interface.
type Func func(ctx context.Context, role, description string) error

// Name implements Notifier.
func (f Func) Name() string { return "func" }

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, role, description string) error {
	return f(ctx, role, description)
}
