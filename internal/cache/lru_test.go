package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}

	c.Set("overview-2026-3", "snapshot")
	got, ok := c.Get("overview-2026-3")
	if !ok || got != "snapshot" {
		t.Fatalf("Get = (%q, %v), want (snapshot, true)", got, ok)
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a, so b is now the oldest
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should survive eviction")
	}
	if c.Size() != 2 {
		t.Fatalf("Size = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry should miss")
	}
	if c.Size() != 0 {
		t.Fatalf("Size = %d after expired Get, want 0", c.Size())
	}
}

func TestLRUClear(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("overview-2026-3", 1)
	c.Set("overview-2026-4", 2)
	c.Clear()

	if c.Size() != 0 {
		t.Fatalf("Size = %d after Clear, want 0", c.Size())
	}
	if _, ok := c.Get("overview-2026-3"); ok {
		t.Fatal("cleared key should miss")
	}

	// Cache remains usable after Clear
	c.Set("overview-2026-5", 3)
	if _, ok := c.Get("overview-2026-5"); !ok {
		t.Fatal("Set after Clear should work")
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("CleanExpired = %d, want 2", n)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("fresh entry should survive cleanup")
	}
}

func TestManagerCleanup(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	m := NewManager()
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)

	c.Set("a", 1)
	time.Sleep(25 * time.Millisecond)
	m.Stop()

	if c.Size() != 0 {
		t.Fatalf("Size = %d after manager cleanup, want 0", c.Size())
	}
}
