// Package cache provides a small in-process LRU cache with TTL support.
// It backs the search-result cache so repeated queries within a session do
// not burn provider quota.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU implements an LRU cache with TTL support and generics.
type LRU[K comparable, V any] struct {
	cache      map[K]*entry[K, V]
	order      *list.List
	capacity   int
	defaultTTL time.Duration
	mu         sync.RWMutex
}

type entry[K comparable, V any] struct {
	expiresAt time.Time
	element   *list.Element
	key       K
	value     V
}

// NewLRU creates a new LRU cache.
func NewLRU[K comparable, V any](capacity int, defaultTTL time.Duration) *LRU[K, V] {
	if capacity <= 0 {
		capacity = 256
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	return &LRU[K, V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		cache:      make(map[K]*entry[K, V]),
		order:      list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[key]
	if !ok {
		var zero V
		return zero, false
	}

	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		var zero V
		return zero, false
	}

	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores a value in the cache.
func (c *LRU[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity <= 0 {
		return
	}

	if e, ok := c.cache[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.cache) >= c.capacity {
		c.evictOldest()
	}

	e := &entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	e.element = c.order.PushFront(e)
	c.cache[key] = e
}

// SetWithDefaultTTL stores a value using the default TTL.
func (c *LRU[K, V]) SetWithDefaultTTL(key K, value V) {
	c.Set(key, value, c.defaultTTL)
}

// Remove removes a specific entry from the cache.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cache[key]; ok {
		c.removeEntry(e)
		return true
	}
	return false
}

// Size returns the number of entries in the cache.
func (c *LRU[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Clear removes all entries from the cache.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[K]*entry[K, V])
	c.order.Init()
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *LRU[K, V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}

	e, ok := oldest.Value.(*entry[K, V])
	if !ok {
		return
	}
	c.removeEntry(e)
}

// removeEntry removes an entry from the cache.
// Must be called with lock held.
func (c *LRU[K, V]) removeEntry(e *entry[K, V]) {
	c.order.Remove(e.element)
	delete(c.cache, e.key)
}
