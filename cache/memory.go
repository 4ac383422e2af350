package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/depshield/resilience"
)

// MemoryCache is a process-local Cache backed by a map with lazy expiry.
// Suited to single-replica deployments and tests; use RedisCache when
// fallback results must survive a restart or be shared across replicas.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	policy  Policy
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory cache governed by the given policy.
func NewMemoryCache(policy Policy) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		policy:  policy,
	}
}

// Get retrieves a value. Expired entries are removed on access and reported
// as a miss.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	return entry.value, true
}

// Set stores a value for the policy-clamped ttl. A non-positive ttl stores
// nothing.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ttl = c.policy.EffectiveTTL(ttl)

	c.mu.Lock()
	c.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()

	return nil
}

// Delete removes a value. Deleting an absent key is not an error.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, including expired ones not yet
// swept by Get.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure MemoryCache implements Cache and can back a resilient client
var (
	_ Cache                  = (*MemoryCache)(nil)
	_ resilience.ResultStore = (*MemoryCache)(nil)
)
