package cache

import (
	"sync"
	"time"
)

// Entry represents a cached item with expiration
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Cache provides TTL-based in-memory caching
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// New creates a new Cache with the specified TTL
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]*Entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests
func (c *Cache[V]) WithClock(now func() time.Time) *Cache[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Get retrieves a value from the cache
// Returns the value and true if found and not expired, zero value and false otherwise
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	entry, exists := c.entries[key]
	if !exists {
		return zero, false
	}

	// Check if entry has expired
	if c.now().After(entry.ExpiresAt) {
		return zero, false
	}

	return entry.Value, true
}

// GetOrCreate returns the live value for key, storing create() if there is none.
// Reading an existing entry extends its lifetime by the default TTL.
func (c *Cache[V]) GetOrCreate(key string, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.entries[key]; ok && !now.After(entry.ExpiresAt) {
		entry.ExpiresAt = now.Add(c.ttl)
		return entry.Value
	}

	value := create()
	c.entries[key] = &Entry[V]{Value: value, ExpiresAt: now.Add(c.ttl)}
	return value
}

// Set stores a value in the cache with the default TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value in the cache with a custom TTL
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &Entry[V]{
		Value:     value,
		ExpiresAt: c.now().Add(ttl),
	}
}

// Delete removes a value from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear removes all entries from the cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry[V])
}

// Cleanup removes expired entries from the cache and returns how many were dropped
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of entries in the cache (including expired ones)
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
