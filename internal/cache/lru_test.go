package cache

import (
	"context"
	"testing"
	"time"

	"ebudget/internal/log"
)

func TestLRUEviction(t *testing.T) {
	c := NewLRU[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should be cached")
	}
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted as least recently used")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("j", "w")
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry expired too early")
	}
	now = now.Add(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry should have expired")
	}
	if n := c.CleanExpired(); n != 1 || c.Size() != 0 {
		t.Fatalf("CleanExpired = %d, size %d", n, c.Size())
	}
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c := NewLRU[int](0, 0)
	c.Set("a", 1)
	c.Delete("a")
	if c.Size() != 0 {
		t.Fatalf("delete left %d entries", c.Size())
	}
	c.Set("b", 2)
	c.Purge()
	if _, ok := c.Get("b"); ok {
		t.Fatalf("purge kept entries")
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager(log.Discard())
	m.Register(NewLRU[int](1, time.Millisecond))
	m.Start(context.Background(), time.Millisecond)
	m.Stop()
	m.Stop()
}
