package cache

import (
	"fmt"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected a=1, got %q %v", v, ok)
	}

	// a was just used, so b is the eviction candidate
	c.Set("c", "3")
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Evictions != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newLRUCache[int](10, time.Minute, clock.now)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	clock.advance(30 * time.Second)
	c.Set("k0", 10)
	clock.advance(45 * time.Second)

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("expected 2 expired, got %d", n)
	}
	if v, ok := c.Get("k0"); !ok || v != 10 {
		t.Fatalf("refreshed entry lost, got %d %v", v, ok)
	}
	if _, ok := c.Get("k1"); ok {
		t.Fatal("expired entry returned")
	}
}

func TestLRUCache_Purge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()

	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
	c.Set("a", 3)
	if v, _ := c.Get("a"); v != 3 {
		t.Fatalf("cache unusable after purge, got %d", v)
	}
}

func TestManager_CleanNow(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := newLRUCache[int](10, time.Minute, clock.now)
	c.Set("a", 1)
	c.Set("b", 2)
	clock.advance(2 * time.Minute)

	m := NewManager()
	m.Register(c)
	if n := m.CleanNow(); n != 2 {
		t.Fatalf("expected 2 cleaned, got %d", n)
	}
	m.Stop()
	m.Stop()
}
