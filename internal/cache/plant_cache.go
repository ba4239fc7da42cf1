package cache

import (
	"sync"
	"time"

	"github.com/mamadbah2/plantcare/internal/domain/models"
)

// DefaultPlantTTL throttles list re-fetches on rapid screen re-entry.
const DefaultPlantTTL = 5 * time.Second

// PlantCache holds the last plant list read from the store together with the
// time it was read. Mutations must call Invalidate.
type PlantCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	data      []models.Plant
	fetchedAt time.Time
	valid     bool
}

// NewPlantCache builds a cache with the provided TTL (DefaultPlantTTL when <= 0).
func NewPlantCache(ttl time.Duration) *PlantCache {
	if ttl <= 0 {
		ttl = DefaultPlantTTL
	}
	return &PlantCache{ttl: ttl}
}

// IsStale reports whether the cached data must be refreshed at now.
func (c *PlantCache) IsStale(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.staleLocked(now)
}

func (c *PlantCache) staleLocked(now time.Time) bool {
	if !c.valid || len(c.data) == 0 {
		return true
	}
	return now.Sub(c.fetchedAt) >= c.ttl
}

// Get returns a copy of the cached list when it is still fresh.
func (c *PlantCache) Get(now time.Time) ([]models.Plant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.staleLocked(now) {
		return nil, false
	}
	out := make([]models.Plant, len(c.data))
	copy(out, c.data)
	return out, true
}

// Set replaces the cached list.
func (c *PlantCache) Set(data []models.Plant, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make([]models.Plant, len(data))
	copy(c.data, data)
	c.fetchedAt = now
	c.valid = true
}

// Invalidate forces the next Get to miss.
func (c *PlantCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.fetchedAt = time.Time{}
	c.valid = false
}
