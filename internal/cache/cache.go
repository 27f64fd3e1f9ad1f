package cache

import (
	"sync"
	"time"
)

// TTLCache provides in-memory caching with per-entry expiry
type TTLCache[V any] struct {
	data    map[string]*cacheEntry[V]
	ttl     time.Duration
	mu      sync.RWMutex
	cleanup *time.Ticker
	done    chan struct{}
	stop    sync.Once

	statsMu     sync.Mutex
	hits        int64
	misses      int64
	lastCleanup time.Time
}

// cacheEntry represents a cache entry with expiration
type cacheEntry[V any] struct {
	value      V
	expiration time.Time
}

// Stats reports cache effectiveness
type Stats struct {
	Size        int       `json:"size"`
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	HitRate     float64   `json:"hit_rate"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// New creates a cache and starts its cleanup goroutine. Call Stop to release it.
func New[V any](ttl time.Duration) *TTLCache[V] {
	c := &TTLCache[V]{
		data:        make(map[string]*cacheEntry[V]),
		ttl:         ttl,
		cleanup:     time.NewTicker(time.Minute),
		done:        make(chan struct{}),
		lastCleanup: time.Now(),
	}

	go c.cleanupLoop()

	return c
}

// Get retrieves a live value and records a hit or miss
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if ok && time.Now().After(entry.expiration) {
		ok = false
	}

	c.statsMu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.statsMu.Unlock()

	if !ok {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores a value in the cache
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry[V]{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

// Size returns the number of entries, expired or not
func (c *TTLCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// Stats returns cache statistics
func (c *TTLCache[V]) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:        c.Size(),
		Hits:        c.hits,
		Misses:      c.misses,
		HitRate:     hitRate,
		LastCleanup: c.lastCleanup,
	}
}

// Stop stops the cleanup goroutine
func (c *TTLCache[V]) Stop() {
	c.stop.Do(func() {
		c.cleanup.Stop()
		close(c.done)
	})
}

func (c *TTLCache[V]) cleanupLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *TTLCache[V]) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			delete(c.data, key)
		}
	}
	c.mu.Unlock()

	c.statsMu.Lock()
	c.lastCleanup = now
	c.statsMu.Unlock()
}
