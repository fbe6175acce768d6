package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache stores search results by key for a bounded time.
type Cache interface {
	Get(ctx context.Context, key string) ([]Snippet, bool, error)
	Set(ctx context.Context, key string, snippets []Snippet, ttl time.Duration) error
}

type cacheEntry struct {
	snippets  []Snippet
	expiresAt time.Time
}

func (e cacheEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryCache implements Cache using in-memory storage. Expired entries are
// skipped on read and removed by PurgeExpired.
type MemoryCache struct {
	entries map[string]cacheEntry
	mutex   sync.RWMutex
	logger  zerolog.Logger
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(logger zerolog.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		logger:  logger.With().Str("component", "memory_cache").Logger(),
		now:     time.Now,
	}
}

// Set stores snippets with expiration
func (c *MemoryCache) Set(ctx context.Context, key string, snippets []Snippet, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stored := make([]Snippet, len(snippets))
	copy(stored, snippets)

	c.entries[key] = cacheEntry{
		snippets:  stored,
		expiresAt: c.now().Add(ttl),
	}

	c.logger.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Msg("Stored search results")

	return nil
}

// Get retrieves snippets by key
func (c *MemoryCache) Get(ctx context.Context, key string) ([]Snippet, bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists || entry.expired(c.now()) {
		return nil, false, nil
	}

	snippets := make([]Snippet, len(entry.snippets))
	copy(snippets, entry.snippets)
	return snippets, true, nil
}

// PurgeExpired removes expired entries and returns how many were removed.
func (c *MemoryCache) PurgeExpired(ctx context.Context) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Close cleans up resources
func (c *MemoryCache) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	count := len(c.entries)
	c.entries = make(map[string]cacheEntry)

	c.logger.Info().
		Int("cleared_entries", count).
		Msg("Memory cache closed and cleared")

	return nil
}

// RedisCache implements Cache on top of redis, storing JSON-encoded snippets.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a cache using client. Keys are namespaced by prefix.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]Snippet, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var snippets []Snippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		return nil, false, fmt.Errorf("decode cached results: %w", err)
	}
	return snippets, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, snippets []Snippet, ttl time.Duration) error {
	data, err := json.Marshal(snippets)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
