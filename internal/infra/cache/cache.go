// Package cache provides an in-memory TTL cache for analysis results.
package cache

import (
	"sync"
	"time"
)

const minCleanupInterval = time.Second

type entry[T any] struct {
	value     T
	expiresAt time.Time
	storedAt  time.Time
}

// InMemory is a thread-safe cache with a TTL and an optional size bound.
// When full, the oldest entry is evicted.
type InMemory[T any] struct {
	mu         sync.RWMutex
	items      map[string]entry[T]
	ttl        time.Duration
	maxEntries int

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache whose entries live for ttl. maxEntries <= 0 means
// unbounded. Call Close to stop the cleanup goroutine.
func New[T any](ttl time.Duration, maxEntries int) *InMemory[T] {
	c := &InMemory[T]{
		items:      make(map[string]entry[T]),
		ttl:        ttl,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}
	go c.cleanup(max(ttl, minCleanupInterval))
	return c
}

// Get retrieves a value. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.items[key] = entry[T]{
		value:     value,
		expiresAt: now.Add(c.ttl),
		storedAt:  now,
	}
}

// Delete removes a value.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of stored entries, expired ones included until
// the next cleanup.
func (c *InMemory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *InMemory[T]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *InMemory[T]) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.items {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
		}
	}
	delete(c.items, oldestKey)
}

// cleanup periodically removes expired entries.
func (c *InMemory[T]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.items {
				if now.After(v.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
