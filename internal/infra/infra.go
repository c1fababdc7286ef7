// Package infra provides small shared plumbing used across the application:
// a TTL cache (generated TTS audio) and a token-bucket rate limiter
// (outbound scraping requests).
package infra

import (
	"context"
	"sync"
	"time"
)

// --- TTL cache ---

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with per-entry TTL and an optional
// eviction hook. The hook lets the TTS layer delete temp audio directories
// when their cache entry is dropped.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	onEvict func(key string, value any)
}

// NewCache creates a cache with the given default TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// OnEvict registers a hook called whenever an entry leaves the cache:
// expiry observed by Get, Invalidate, Cleanup, or Flush. Overwrites via Set
// also evict the prior value.
func (c *Cache) OnEvict(fn func(key string, value any)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// Get retrieves a value. Expired entries are evicted on access.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		c.evictLocked(key, entry.value)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	if old, ok := c.entries[key]; ok {
		c.evictLocked(key, old.value)
	}
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate removes a key, firing the eviction hook if the key existed.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.evictLocked(key, entry.value)
	}
	c.mu.Unlock()
}

// Cleanup evicts all expired entries. Call periodically.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	now := time.Now()
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
			c.evictLocked(k, v.value)
		}
	}
	c.mu.Unlock()
}

// Flush evicts everything. Called on shutdown so eviction hooks can release
// external resources.
func (c *Cache) Flush() {
	c.mu.Lock()
	for k, v := range c.entries {
		delete(c.entries, k)
		c.evictLocked(k, v.value)
	}
	c.mu.Unlock()
}

// evictLocked must be called with mu held; the hook must not call back into
// the cache.
func (c *Cache) evictLocked(key string, value any) {
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}

// --- Rate limiter ---

// RateLimiter is a token-bucket limiter: maxTokens requests per refill
// period. Scrapers use it to stay polite toward the search engine.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing maxTokens requests per
// refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= rl.refillRate {
		periods := int(elapsed / rl.refillRate)
		rl.tokens += periods * rl.maxTokens
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}
