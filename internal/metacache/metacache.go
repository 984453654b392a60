// Package metacache is a TTL cache for object metadata. It cuts repeated
// HeadObject round-trips for hot keys while mutations invalidate entries
// so readers never see deleted or rewritten objects as fresh.
package metacache

import (
	"sync"
	"time"

	"github.com/porterbay/transit/transittypes"
)

// Cache maps object keys to metadata with a fixed TTL. A TTL of zero or
// less disables the cache: every lookup misses and nothing is stored.
//
// Expired entries are reported as absent but stay in the map until the key
// is written again or invalidated. Lookups never mutate the map, so reads
// share a lock.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	info     transittypes.FileInfo
	cachedAt time.Time
}

// New creates a cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached metadata for key, if present and fresh.
func (c *Cache) Get(key string) (transittypes.FileInfo, bool) {
	if c.ttl <= 0 {
		return transittypes.FileInfo{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return transittypes.FileInfo{}, false
	}
	if c.now().Sub(e.cachedAt) >= c.ttl {
		return transittypes.FileInfo{}, false
	}
	return e.info, true
}

// Put stores metadata for key, stamping it with the current time.
func (c *Cache) Put(key string, info transittypes.FileInfo) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{info: info, cachedAt: c.now()}
}

// Invalidate removes the entry for key, if any.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of stored entries, fresh or expired.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
