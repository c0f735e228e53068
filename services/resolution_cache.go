package services

import (
	"sort"
	"sync"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultResolutionTTL     = 24 * time.Hour
	DefaultResolutionMaxSize = 1000
)

// ResolutionCache maps normalized IPO names to a registrar's identifier, including misses.
// Each registrar owns its own instance so keys never collide across registrars.
type ResolutionCache struct {
	registrar models.RegistrarID
	entries   map[string]models.ResolutionCacheEntry
	mutex     sync.Mutex
	ttl       time.Duration
	maxSize   int
	now       func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

// NewResolutionCache creates a cache; non-positive limits fall back to 24h and 1000 entries
func NewResolutionCache(registrar models.RegistrarID, ttl time.Duration, maxSize int) *ResolutionCache {
	if ttl <= 0 {
		ttl = DefaultResolutionTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultResolutionMaxSize
	}
	return &ResolutionCache{
		registrar: registrar,
		entries:   make(map[string]models.ResolutionCacheEntry),
		ttl:       ttl,
		maxSize:   maxSize,
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (c *ResolutionCache) WithClock(now func() time.Time) *ResolutionCache {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = now
	return c
}

// Get returns a live entry. Expired entries are removed on read.
func (c *ResolutionCache) Get(key string) (models.ResolutionCacheEntry, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return models.ResolutionCacheEntry{}, false
	}
	if c.isExpired(entry, c.now()) {
		delete(c.entries, key)
		c.evictions++
		c.misses++
		return models.ResolutionCacheEntry{}, false
	}

	c.hits++
	return entry, true
}

// Put stores a resolution; a nil value records a miss
func (c *ResolutionCache) Put(key string, value *string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	c.evictExpiredLocked(now)

	var stored *string
	if value != nil {
		copied := *value
		stored = &copied
	}
	c.entries[key] = models.ResolutionCacheEntry{Key: key, Value: stored, ResolvedAt: now}

	c.evictOverCapacityLocked()
}

// EvictExpired removes every entry older than the TTL
func (c *ResolutionCache) EvictExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.evictExpiredLocked(c.now())
}

// EvictOverCapacity removes oldest entries until the cache is within capacity
func (c *ResolutionCache) EvictOverCapacity() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.evictOverCapacityLocked()
}

// Clear removes all entries
func (c *ResolutionCache) Clear() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]models.ResolutionCacheEntry)
	return removed
}

// Size returns the number of stored entries, expired or not
func (c *ResolutionCache) Size() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

// Stats summarizes the cache
func (c *ResolutionCache) Stats() models.ResolutionCacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stats := models.ResolutionCacheStats{
		Registrar: c.registrar,
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		TTL:       c.ttl.String(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	for _, entry := range c.entries {
		if entry.Found() {
			stats.Positive++
		} else {
			stats.Negative++
		}
	}
	return stats
}

func (c *ResolutionCache) isExpired(entry models.ResolutionCacheEntry, now time.Time) bool {
	return now.Sub(entry.ResolvedAt) > c.ttl
}

func (c *ResolutionCache) evictExpiredLocked(now time.Time) int {
	removed := 0
	for key, entry := range c.entries {
		if c.isExpired(entry, now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.evictions += int64(removed)
	return removed
}

func (c *ResolutionCache) evictOverCapacityLocked() int {
	overflow := len(c.entries) - c.maxSize
	if overflow <= 0 {
		return 0
	}

	ordered := make([]models.ResolutionCacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		ordered = append(ordered, entry)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ResolvedAt.Before(ordered[j].ResolvedAt)
	})

	for _, entry := range ordered[:overflow] {
		delete(c.entries, entry.Key)
	}
	c.evictions += int64(overflow)

	logrus.WithFields(logrus.Fields{
		"component": "ResolutionCache",
		"registrar": c.registrar,
		"evicted":   overflow,
		"max_size":  c.maxSize,
	}).Debug("Evicted oldest resolution cache entries")
	return overflow
}
