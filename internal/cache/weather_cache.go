package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultWeatherTTL bounds how long a forecast is reused for a grid cell.
const DefaultWeatherTTL = 30 * time.Minute

const weatherKeyPrefix = "plantcare:weather:"

// RedisWeatherCache stores serialized forecasts in Redis.
type RedisWeatherCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient dials Redis with short timeouts. The connection is checked
// once; callers decide whether a failed ping disables caching.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisWeatherCache wraps an existing client.
func NewRedisWeatherCache(client *redis.Client, ttl time.Duration) *RedisWeatherCache {
	if ttl <= 0 {
		ttl = DefaultWeatherTTL
	}
	return &RedisWeatherCache{client: client, ttl: ttl}
}

// Get returns the cached value and whether it was present.
func (c *RedisWeatherCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.client.Get(ctx, weatherKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set stores value for the configured TTL.
func (c *RedisWeatherCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, weatherKeyPrefix+key, value, c.ttl).Err()
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryWeatherCache is the single-instance fallback used when Redis is not configured.
type MemoryWeatherCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryWeatherCache builds an in-process cache.
func NewMemoryWeatherCache(ttl time.Duration) *MemoryWeatherCache {
	if ttl <= 0 {
		ttl = DefaultWeatherTTL
	}
	return &MemoryWeatherCache{entries: map[string]memoryEntry{}, ttl: ttl, now: time.Now}
}

// Get returns the cached value when it has not expired.
func (c *MemoryWeatherCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores value for the configured TTL.
func (c *MemoryWeatherCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(c.ttl)}
	return nil
}
