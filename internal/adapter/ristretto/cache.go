// Package ristretto implements the cache port using dgraph-io/ristretto as
// the in-process L1 cache.
package ristretto

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const (
	bytesPerMB = 1 << 20
	// avgEntryBytes sizes the admission counters; idempotency replays are
	// small JSON documents.
	avgEntryBytes = 512
)

// Cache wraps a ristretto cache as an in-process L1 cache.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a ristretto-backed cache holding at most maxSizeMB megabytes
// of values.
func New(maxSizeMB int) (*Cache, error) {
	if maxSizeMB < 1 {
		maxSizeMB = 1
	}
	maxCost := int64(maxSizeMB) * bytesPerMB
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCost / avgEntryBytes * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}
	return &Cache{c: c}, nil
}

// Get retrieves a value from the cache.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores a copy of value with the given TTL. The write is visible to
// Get when Set returns. A zero ttl keeps the entry until it is evicted.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := append([]byte(nil), value...)
	c.c.SetWithTTL(key, v, int64(len(v))+1, ttl)
	c.c.Wait()
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
