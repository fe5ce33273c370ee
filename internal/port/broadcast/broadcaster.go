// Package broadcast defines the port through which blackboard changes are
// fanned out to observers: websocket clients, the NATS mirror, the journal.
package broadcast

import "context"

// Broadcaster receives every store event in emission order.
type Broadcaster interface {
	// BroadcastEvent delivers one typed event. Implementations must not block
	// on I/O; wrap slow sinks in an Async.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
