// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

// Package cache provides a thread-safe in-memory key/value store with
// per-entry TTL expiry. It backs the repository layer (tenant config,
// candidate pools, fallback feeds, user signals) and is cheap enough for
// the request hot path.
package cache

import (
	"sync"
	"time"
)

// Entry represents a cached item with expiration.
// A zero ExpiresAt means the entry never expires.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// expired reports whether the entry is past its expiry at the given instant.
func (e Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Stats tracks cache performance counters.
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// Cache is a thread-safe in-memory cache with TTL support.
//
// All reads and mutations are linearizable under a single RWMutex. The
// user-supplied factory in GetOrSet runs outside the lock: duplicate
// concurrent computation is acceptable and the last writer wins.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	defaultTTL time.Duration
	stats      Stats
}

// New creates a cache whose entries expire after defaultTTL.
// A non-positive defaultTTL means entries never expire unless SetWithTTL
// is called with an explicit TTL.
//
// Unlike earlier revisions, New does not spawn a background goroutine;
// periodic cleanup is owned by the supervisor's janitor service calling
// CleanupExpired.
func New(defaultTTL time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]Entry),
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value by key. Expired entries are removed on access and
// reported as misses.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if entry.expired(time.Now()) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// replaced the entry since the read.
		if cur, ok := c.entries[key]; ok && cur.expired(time.Now()) {
			delete(c.entries, key)
			c.recordEviction()
		}
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores a value with the default TTL configured at construction.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with a custom TTL. A non-positive ttl stores
// the entry without expiry.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	entry := Entry{Data: value}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.TotalKeys = total
	c.stats.mu.Unlock()
}

// Delete removes a key, reporting whether it existed.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if existed {
		c.recordEviction()
	}
	return existed
}

// Clear removes all entries in a single map swap.
func (c *Cache) Clear() {
	c.mu.Lock()
	evictions := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = 0
	c.stats.mu.Unlock()
}

// GetOrSet returns the cached value for key, computing and storing it with
// the default TTL on a miss.
//
// The factory executes outside the cache lock, so two concurrent callers
// may both compute; the later Set wins. Callers needing single-flight
// semantics must coalesce upstream.
func (c *Cache) GetOrSet(key string, factory func() interface{}) interface{} {
	return c.GetOrSetWithTTL(key, factory, c.defaultTTL)
}

// GetOrSetWithTTL is GetOrSet with an explicit TTL for the computed value.
func (c *Cache) GetOrSetWithTTL(key string, factory func() interface{}, ttl time.Duration) interface{} {
	if value, ok := c.Get(key); ok {
		return value
	}

	value := factory()
	c.SetWithTTL(key, value, ttl)
	return value
}

// Size returns the number of entries, which may include expired entries
// that have not yet been evicted.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CleanupExpired removes all expired entries and returns the count removed.
func (c *Cache) CleanupExpired() int {
	now := time.Now()

	c.mu.Lock()
	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += int64(removed)
	c.stats.TotalKeys = total
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()

	return removed
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Evictions:   c.stats.Evictions,
		TotalKeys:   c.stats.TotalKeys,
		LastCleanup: c.stats.LastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}

func (c *Cache) recordEviction() {
	c.stats.mu.Lock()
	c.stats.Evictions++
	c.stats.mu.Unlock()
}
