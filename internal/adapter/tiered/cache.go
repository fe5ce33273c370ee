// Package tiered implements a two-level (L1 + L2) cache adapter.
package tiered

import (
	"context"
	"log/slog"
	"time"

	"github.com/Strob0t/blackboard/internal/port/cache"
)

// Cache combines an L1 (in-process) and L2 (shared) cache.
// Get checks L1 first, then L2 (backfilling L1 on L2 hit).
// Set and Delete operate on both levels. L2 failures are logged and the
// cache keeps serving from L1, so a NATS outage degrades to per-instance
// caching instead of failing requests.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration
}

// New creates a tiered cache with the given L1 and L2 backends.
// l1Expire controls how long L2 backfill entries live in L1. A nil l2
// leaves an L1-only cache.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire}
}

// Get checks L1, then L2. On L2 hit, backfills L1.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found || c.l2 == nil {
		return val, found, nil
	}

	val, found, err = c.l2.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "tiered cache: l2 get failed", "key", key, "error", err)
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}
	_ = c.l1.Set(ctx, key, val, c.l1Expire)
	return val, true, nil
}

// Set writes to both L1 and L2.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if c.l2 == nil {
		return nil
	}
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "tiered cache: l2 set failed", "key", key, "error", err)
	}
	return nil
}

// Delete removes from both L1 and L2.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	if c.l2 == nil {
		return nil
	}
	return c.l2.Delete(ctx, key)
}
