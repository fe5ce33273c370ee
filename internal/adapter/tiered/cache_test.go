package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/blackboard/internal/adapter/tiered"
	"github.com/Strob0t/blackboard/internal/port/cache"
	"github.com/Strob0t/blackboard/internal/port/cache/cachetest"
)

var _ cache.Cache = (*memCache)(nil)

// memCache is a simple in-memory cache for testing.
type memCache struct {
	data map[string][]byte
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestCompliance(t *testing.T) {
	cachetest.RunComplianceTests(t, tiered.New(newMemCache(), newMemCache(), time.Minute))
}

func TestComplianceL1Only(t *testing.T) {
	cachetest.RunComplianceTests(t, tiered.New(newMemCache(), nil, time.Minute))
}

func TestTiered_L1Hit(t *testing.T) {
	l1 := newMemCache()
	c := tiered.New(l1, newMemCache(), 5*time.Minute)

	l1.data["key1"] = []byte("val1")

	val, found, err := c.Get(context.Background(), "key1")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(val) != "val1" {
		t.Fatalf("expected L1 hit val1, got %q found=%v", val, found)
	}
}

func TestTiered_L2HitWithBackfill(t *testing.T) {
	l1 := newMemCache()
	l2 := newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)

	l2.data["key2"] = []byte("val2")

	val, found, err := c.Get(context.Background(), "key2")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(val) != "val2" {
		t.Fatalf("expected L2 hit val2, got %q found=%v", val, found)
	}
	if string(l1.data["key2"]) != "val2" {
		t.Fatal("expected L1 backfill")
	}
}

func TestTiered_SetAndDeleteBoth(t *testing.T) {
	l1 := newMemCache()
	l2 := newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "key3", []byte("val3"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["key3"]; !ok {
		t.Fatal("expected key3 in L1")
	}
	if _, ok := l2.data["key3"]; !ok {
		t.Fatal("expected key3 in L2")
	}

	if err := c.Delete(ctx, "key3"); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["key3"]; ok {
		t.Fatal("expected key3 deleted from L1")
	}
	if _, ok := l2.data["key3"]; ok {
		t.Fatal("expected key3 deleted from L2")
	}
}

func TestTiered_L2FailureDegradesToL1(t *testing.T) {
	l1 := newMemCache()
	l2 := newMemCache()
	l2.err = errors.New("nats down")
	c := tiered.New(l1, l2, 5*time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("L2 failure must not fail Set: %v", err)
	}
	val, found, err := c.Get(ctx, "k")
	if err != nil || !found || string(val) != "v" {
		t.Fatalf("expected L1 hit, got %q found=%v err=%v", val, found, err)
	}
	if _, found, err := c.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("expected clean miss, found=%v err=%v", found, err)
	}
}
