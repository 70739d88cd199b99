package cache

import (
	"testing"
	"time"
)

func TestGetReturnsValueBeforeExpiry(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := NewWithClock[int64, string](10*time.Minute, func() time.Time { return now })

	c.Set(1, "Crypto Traders")

	got, ok := c.Get(1)
	if !ok {
		t.Fatal("expected hit")
	}
	if got != "Crypto Traders" {
		t.Errorf("got %q", got)
	}
}

func TestGetMissesAfterExpiry(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := NewWithClock[int64, string](10*time.Minute, func() time.Time { return now })

	c.Set(1, "Crypto Traders")
	now = now.Add(11 * time.Minute)

	if _, ok := c.Get(1); ok {
		t.Fatal("expected miss after ttl")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not dropped, len = %d", c.Len())
	}
}

func TestSetSweepsExpiredEntries(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := NewWithClock[int64, string](10*time.Minute, func() time.Time { return now })

	c.Set(1, "a")
	c.Set(2, "b")
	now = now.Add(11 * time.Minute)
	c.Set(3, "c")

	if c.Len() != 1 {
		t.Errorf("len = %d, want 1 after sweep", c.Len())
	}
	if _, ok := c.Get(3); !ok {
		t.Error("fresh entry missing")
	}
}

func TestInvalidate(t *testing.T) {
	c := New[string, int](time.Minute)

	c.Set("k", 42)
	c.Invalidate("k")

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after invalidate")
	}
}

func TestMissReturnsZeroValue(t *testing.T) {
	c := New[string, int](time.Minute)

	got, ok := c.Get("absent")
	if ok {
		t.Fatal("expected miss")
	}
	if got != 0 {
		t.Errorf("zero value = %d", got)
	}
}
