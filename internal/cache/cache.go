// Package cache provides a bounded, expiring in-process cache.
package cache

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// Cache is the read-through store used by computation-heavy services
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Delete(key string)
	Purge() int
	Len() int
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// LRU is a mutex-guarded LRU cache whose entries expire after a TTL
type LRU struct {
	mu    sync.Mutex
	items *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewLRU creates a cache holding at most maxEntries (0 = unbounded).
// A ttl of 0 disables expiry.
func NewLRU(maxEntries int, ttl time.Duration) *LRU {
	return &LRU{
		items: lru.New(maxEntries),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns a live entry and marks it recently used
func (c *LRU) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	e := raw.(entry)
	if c.expired(e) {
		c.items.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, evicting the least recently used entry when full
func (c *LRU) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{value: value}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.items.Add(key, e)
}

// Delete removes key
func (c *LRU) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Remove(key)
}

// Purge drops expired entries and returns how many were removed
func (c *LRU) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 {
		return 0
	}

	type item struct {
		key lru.Key
		e   entry
	}

	// groupcache/lru has no iterator: drain oldest first, then re-add the
	// live entries in the same order so recency is preserved
	var live []item
	removed := 0
	c.items.OnEvicted = func(key lru.Key, value interface{}) {
		e := value.(entry)
		if c.expired(e) {
			removed++
			return
		}
		live = append(live, item{key: key, e: e})
	}
	for c.items.Len() > 0 {
		c.items.RemoveOldest()
	}
	c.items.OnEvicted = nil

	for _, it := range live {
		c.items.Add(it.key, it.e)
	}
	return removed
}

// Len returns the number of stored entries, expired ones included
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

func (c *LRU) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}
