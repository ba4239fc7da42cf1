package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryWeatherCacheExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)

	c := NewMemoryWeatherCache(time.Minute)
	c.now = func() time.Time { return now }

	if _, ok, _ := c.Get(ctx, "60:127"); ok {
		t.Fatal("empty cache should miss")
	}
	if err := c.Set(ctx, "60:127", []byte(`{"temperature":12}`)); err != nil {
		t.Fatal(err)
	}

	now = now.Add(59 * time.Second)
	if v, ok, _ := c.Get(ctx, "60:127"); !ok || string(v) != `{"temperature":12}` {
		t.Errorf("Get = %q, %v", v, ok)
	}

	now = now.Add(time.Second)
	if _, ok, _ := c.Get(ctx, "60:127"); ok {
		t.Error("entry should expire after the ttl")
	}
}

func TestWeatherCacheDefaultTTL(t *testing.T) {
	if c := NewMemoryWeatherCache(0); c.ttl != DefaultWeatherTTL {
		t.Errorf("ttl = %s", c.ttl)
	}
	if c := NewRedisWeatherCache(nil, -1); c.ttl != DefaultWeatherTTL {
		t.Errorf("ttl = %s", c.ttl)
	}
}
