package cache

import (
	"testing"
	"time"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

func TestPlantCacheLifecycle(t *testing.T) {
	c := NewPlantCache(5 * time.Second)
	start := time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)

	if !c.IsStale(start) {
		t.Fatal("empty cache should be stale")
	}
	if _, ok := c.Get(start); ok {
		t.Fatal("empty cache should miss")
	}

	c.Set([]models.Plant{{ID: 1}, {ID: 2}}, start)

	got, ok := c.Get(start.Add(4 * time.Second))
	if !ok || len(got) != 2 {
		t.Fatalf("fresh cache should hit, got ok=%v len=%d", ok, len(got))
	}

	// Mutating the returned slice must not leak into the cache.
	got[0].Nickname = "changed"
	again, _ := c.Get(start.Add(time.Second))
	if again[0].Nickname != "" {
		t.Error("cache returned shared backing array")
	}

	if !c.IsStale(start.Add(5 * time.Second)) {
		t.Error("cache should be stale once the ttl elapsed")
	}

	c.Invalidate()
	if _, ok := c.Get(start.Add(time.Second)); ok {
		t.Error("invalidated cache should miss")
	}
}

func TestPlantCacheEmptyListIsStale(t *testing.T) {
	c := NewPlantCache(0)
	now := time.Now()
	c.Set(nil, now)
	if !c.IsStale(now) {
		t.Error("an empty list is never served from cache")
	}
}
