// Package cache provides a small generic LRU cache.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
	element   *list.Element
}

// LRUCache is a generic LRU cache with optional TTL. A zero TTL keeps
// entries until they are evicted.
type LRUCache[K comparable, V any] struct {
	capacity  int
	ttl       time.Duration
	entries   map[K]*entry[K, V]
	evictList *list.List
	mu        sync.Mutex

	// now is replaced in tests.
	now func() time.Time
}

// NewLRUCache creates a cache holding at most capacity entries.
func NewLRUCache[K comparable, V any](capacity int, ttl time.Duration) *LRUCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache[K, V]{
		capacity:  capacity,
		ttl:       ttl,
		entries:   make(map[K]*entry[K, V]),
		evictList: list.New(),
		now:       time.Now,
	}
}

func (c *LRUCache[K, V]) expired(e *entry[K, V]) bool {
	return c.ttl > 0 && c.now().After(e.expiresAt)
}

// Get returns the value for key and marks it most recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.expired(e) {
		c.removeEntry(e)
		return zero, false
	}
	c.evictList.MoveToFront(e.element)
	return e.value, true
}

// Set adds or updates a value, evicting the least recently used entry
// when over capacity.
func (c *LRUCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expires
		c.evictList.MoveToFront(e.element)
		return
	}

	e := &entry[K, V]{key: key, value: value, expiresAt: expires}
	e.element = c.evictList.PushFront(e)
	c.entries[key] = e

	for c.evictList.Len() > c.capacity {
		c.removeEntry(c.evictList.Back().Value.(*entry[K, V]))
	}
}

// Delete removes a key.
func (c *LRUCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.removeEntry(e)
	}
}

// Clear removes every entry.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*entry[K, V])
	c.evictList = list.New()
}

// Len returns the number of entries, expired ones included.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRUCache[K, V]) removeEntry(e *entry[K, V]) {
	c.evictList.Remove(e.element)
	delete(c.entries, e.key)
}
