package routing

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// RouteCache keeps planned route polylines in memory so location reports do
// not reload them on every sample. Expired entries are dropped on access.
type RouteCache struct {
	cache      map[int64]*CacheEntry
	mutex      sync.Mutex
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	stats      CacheStats
}

// CacheEntry is one trip's cached route
type CacheEntry struct {
	Points       []LatLng
	CreatedAt    time.Time
	LastAccessed time.Time
	HitCount     int
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// NewRouteCache creates a cache holding up to maxEntries routes for ttl
func NewRouteCache(maxEntries int, ttl time.Duration) *RouteCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RouteCache{
		cache:      make(map[int64]*CacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the cached route for tripID if present and fresh
func (c *RouteCache) Get(tripID int64) ([]LatLng, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, found := c.cache[tripID]
	if !found {
		c.stats.Misses++
		return nil, false
	}

	now := c.now()
	if now.Sub(entry.CreatedAt) > c.ttl {
		delete(c.cache, tripID)
		c.stats.Misses++
		c.stats.Evictions++
		return nil, false
	}

	entry.LastAccessed = now
	entry.HitCount++
	c.stats.Hits++
	return entry.Points, true
}

// Set stores a route, evicting the least recently used entry when full
func (c *RouteCache) Set(tripID int64, points []LatLng) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.cache[tripID]; !exists && len(c.cache) >= c.maxEntries {
		c.evictOldest()
	}

	now := c.now()
	c.cache[tripID] = &CacheEntry{
		Points:       points,
		CreatedAt:    now,
		LastAccessed: now,
	}
}

// Invalidate drops a trip's route, e.g. after the plan changes
func (c *RouteCache) Invalidate(tripID int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.cache, tripID)
}

// evictOldest removes the least recently used entry
func (c *RouteCache) evictOldest() {
	var oldestKey int64
	var oldestTime time.Time
	found := false

	for key, entry := range c.cache {
		if !found || entry.LastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastAccessed
			found = true
		}
	}

	if found {
		delete(c.cache, oldestKey)
		c.stats.Evictions++
		log.Printf("🗑️  Evicted route cache entry for trip %d", oldestKey)
	}
}

// Stats returns a snapshot of the counters
func (c *RouteCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.stats
}

// GetStats returns cache statistics for the health endpoint
func (c *RouteCache) GetStats() map[string]interface{} {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	hitRate := 0.0
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		hitRate = float64(c.stats.Hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"cache_size":  len(c.cache),
		"max_entries": c.maxEntries,
		"hits":        c.stats.Hits,
		"misses":      c.stats.Misses,
		"hit_rate":    fmt.Sprintf("%.2f%%", hitRate),
		"evictions":   c.stats.Evictions,
		"ttl_minutes": int(c.ttl.Minutes()),
	}
}
