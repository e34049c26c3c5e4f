// Package cache provides the bounded in-memory caches used for loaded
// tables: a TTL cache with oldest-first eviction, request de-duplication
// for remote fetches, and content keys for uploaded files.
package cache

import (
	"context"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"
)

// Entry is a cached value with its bookkeeping.
type Entry[V any] struct {
	Value     V
	CachedAt  time.Time
	ExpiresAt time.Time
	HitCount  int
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Entries    int     `json:"entries"`
	MaxSize    int     `json:"max_size"`
	HitCount   int64   `json:"hit_count"`
	MissCount  int64   `json:"miss_count"`
	HitRatio   float64 `json:"hit_ratio"`
	TTLSeconds float64 `json:"ttl_seconds"`
}

// Cache is a size-bounded map with optional expiry. A zero ttl keeps entries
// until they are evicted or invalidated.
type Cache[V any] struct {
	entries   map[string]Entry[V]
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	now       func() time.Time
	// generation is bumped by Purge so loads started earlier do not store.
	generation uint64

	group    singleflight.Group
	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a cache. When ttl is positive a janitor goroutine removes
// expired entries every ttl until Stop is called.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	c := &Cache[V]{
		entries:  make(map[string]Entry[V]),
		ttl:      ttl,
		maxSize:  maxSize,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if ttl > 0 {
		go c.cleanup(ttl)
	}
	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.expired(entry) {
		c.missCount++
		var zero V
		return zero, false
	}

	entry.HitCount++
	c.entries[key] = entry
	c.hitCount++
	return entry.Value, true
}

// Set stores value under key, evicting the oldest entry when full.
func (c *Cache[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.store(key, value)
}

func (c *Cache[V]) store(key string, value V) {
	if c.maxSize <= 0 {
		return
	}
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	entry := Entry[V]{Value: value, CachedAt: now}
	if c.ttl > 0 {
		entry.ExpiresAt = now.Add(c.ttl)
	}
	c.entries[key] = entry
}

// GetOrLoad returns the cached value for key or calls load once, sharing the
// result with concurrent callers for the same key. Errors are not cached.
// The second result reports whether the value came from the cache. A load
// that overlaps a Purge is returned to its callers but not stored, and
// callers arriving after the Purge start a fresh load.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	gen := c.currentGeneration()
	res, err, _ := c.group.Do(strconv.FormatUint(gen, 10)+"/"+key, func() (interface{}, error) {
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.setIfGeneration(key, v, gen)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return res.(V), false, nil
}

func (c *Cache[V]) currentGeneration() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.generation
}

func (c *Cache[V]) setIfGeneration(key string, value V, gen uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.generation != gen {
		return
	}
	c.store(key, value)
}

// peek reads without touching hit statistics.
func (c *Cache[V]) peek(key string) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	entry, ok := c.entries[key]
	if !ok || c.expired(entry) {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Invalidate removes key.
func (c *Cache[V]) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// Purge removes every entry. Loads already in flight will not store their
// results.
func (c *Cache[V]) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]Entry[V])
	c.generation++
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// GetStats returns cache statistics
func (c *Cache[V]) GetStats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	total := c.hitCount + c.missCount
	ratio := float64(0)
	if total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}

	return Stats{
		Entries:    len(c.entries),
		MaxSize:    c.maxSize,
		HitCount:   c.hitCount,
		MissCount:  c.missCount,
		HitRatio:   ratio,
		TTLSeconds: c.ttl.Seconds(),
	}
}

// Stop ends the janitor goroutine. It is safe to call more than once.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Cache[V]) expired(e Entry[V]) bool {
	return !e.ExpiresAt.IsZero() && c.now().After(e.ExpiresAt)
}

func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.CachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CachedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *Cache[V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Cache[V]) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
		}
	}
}

// ContentKey identifies uploaded bytes by their BLAKE2b-256 digest.
func ContentKey(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
