// Package cache defines the byte cache behind the idempotency middleware.
// Replayed POST responses (commands, plans, agent registrations) are stored
// here, in process (ristretto) and optionally in a shared NATS KV bucket.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values by key. A miss is (nil, false, nil); errors
// are reserved for an unreachable backend.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl. How a zero ttl is treated is up to the backend.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
