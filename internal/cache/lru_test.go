package cache

import (
	"testing"
	"time"
)

func TestLRUCache_TTLExpiry(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := NewLRUCacheWithClock[int](10, time.Hour, clock)
	c.Set("USD_IDR", 16460)

	if v, ok := c.Get("USD_IDR"); !ok || v != 16460 {
		t.Fatalf("Get fresh entry = (%d, %v), want (16460, true)", v, ok)
	}

	// Entry exactly at TTL is still valid; one instant past is not.
	now = now.Add(time.Hour)
	if _, ok := c.Get("USD_IDR"); !ok {
		t.Error("entry at exact TTL boundary should still be present")
	}

	now = now.Add(time.Nanosecond)
	if _, ok := c.Get("USD_IDR"); ok {
		t.Error("expired entry should be treated as absent")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should be evicted on read, size = %d", c.Size())
	}
}

func TestLRUCache_SizeEviction(t *testing.T) {
	c := NewLRUCache[string](2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := NewLRUCacheWithClock[int](10, time.Minute, clock)
	c.Set("a", 1)
	c.Set("b", 2)

	now = now.Add(2 * time.Minute)
	c.Set("c", 3)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired = %d, want 2", removed)
	}
	if got := c.Keys(); len(got) != 1 || got[0] != "c" {
		t.Errorf("Keys = %v, want [c]", got)
	}
}

func TestLRUCache_Clear(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Size() != 0 {
		t.Errorf("size after Clear = %d, want 0", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("cleared entry should be absent")
	}
}
