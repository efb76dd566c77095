// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache[V any](ttl time.Duration) (*Cache[V], *fakeClock) {
	clk := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[V](ttl, 0)
	c.now = clk.Now
	return c, clk
}

func TestCacheBasicOperations(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache[string](time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists || value != "value1" {
		t.Errorf("Get(key1) = (%q, %v), want (value1, true)", value, exists)
	}

	if _, exists = c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	t.Parallel()

	c, clk := newTestCache[int](100 * time.Millisecond)
	c.Set("key1", 1)

	if _, ok := c.Get("key1"); !ok {
		t.Fatal("Expected key1 to exist immediately after set")
	}

	clk.Advance(150 * time.Millisecond)
	if _, ok := c.Get("key1"); ok {
		t.Error("Expected key1 to be expired")
	}

	stats := c.GetStats()
	if stats.Evictions != 1 || stats.TotalKeys != 0 {
		t.Errorf("stats = %+v, want 1 eviction and 0 keys", stats)
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	t.Parallel()

	c, clk := newTestCache[int](time.Hour)
	c.SetWithTTL("short", 1, time.Second)
	c.Set("long", 2)

	clk.Advance(2 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Error("short-lived entry should have expired")
	}
	if v, ok := c.Get("long"); !ok || v != 2 {
		t.Error("default TTL entry should still be present")
	}
}

func TestCacheGetOrLoad(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache[float64](time.Minute)
	calls := 0
	load := func() (float64, error) {
		calls++
		return 0.7, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("owner:1", load)
		if err != nil || v != 0.7 {
			t.Fatalf("GetOrLoad() = (%v, %v)", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}

	boom := errors.New("db down")
	if _, err := c.GetOrLoad("owner:2", func() (float64, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Errorf("GetOrLoad() error = %v, want %v", err, boom)
	}
	if _, ok := c.Get("owner:2"); ok {
		t.Error("errors must not be cached")
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache[string](time.Minute)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	c.Delete("k0")
	c.Delete("missing")
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if ev := c.GetStats().Evictions; ev != 5 {
		t.Errorf("Evictions = %d, want 5", ev)
	}
}

func TestCacheCleanup(t *testing.T) {
	t.Parallel()

	c, clk := newTestCache[int](time.Second)
	c.Set("a", 1)
	c.SetWithTTL("b", 2, time.Hour)
	clk.Advance(2 * time.Second)

	c.cleanup()
	if c.Len() != 1 {
		t.Errorf("Len() after cleanup = %d, want 1", c.Len())
	}
	if !c.GetStats().LastCleanup.Equal(clk.Now()) {
		t.Error("LastCleanup not updated")
	}
}

func TestCacheHitRate(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache[int](time.Minute)
	if c.HitRate() != 0 {
		t.Error("HitRate() of an unused cache should be 0")
	}
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("a")
	c.Get("b")
	if got := c.HitRate(); got != 75 {
		t.Errorf("HitRate() = %v, want 75", got)
	}
}

func TestCacheCloseIdempotent(t *testing.T) {
	t.Parallel()

	c := New[int](time.Minute, 10*time.Millisecond)
	c.Close()
	c.Close()
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache[int](time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("k%d", i%10)
				c.Set(key, g)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() != 10 {
		t.Errorf("Len() = %d, want 10", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	a := GenerateKey("listings", map[string]any{"city": "Kazan", "limit": 50})
	b := GenerateKey("listings", map[string]any{"limit": 50, "city": "Kazan"})
	if a != b {
		t.Errorf("keys differ for equal params: %s vs %s", a, b)
	}
	if a == GenerateKey("listings", map[string]any{"city": "Sochi"}) {
		t.Error("keys should differ for different params")
	}
}
