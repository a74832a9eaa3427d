// Package cache provides result cache backends for the moderation pipeline.
package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/lru"
)

// LRUCache is the in-process result cache backend. It keeps bounded memory
// use by evicting the least recently used entry and reports occupancy stats.
type LRUCache struct {
	cache  *lru.Cache[string, *core.ModerationResult]
	logger *zap.Logger
}

// NewLRUCache creates a new in-process cache holding at most capacity results.
func NewLRUCache(capacity int, logger *zap.Logger) (*LRUCache, error) {
	inner, err := lru.New[string, *core.ModerationResult](capacity)
	if err != nil {
		return nil, err
	}
	logger.Info("Using in-process LRU result cache", zap.Int("capacity", capacity))
	return &LRUCache{cache: inner, logger: logger}, nil
}

// Get retrieves a cached result.
func (c *LRUCache) Get(_ context.Context, key string) (*core.ModerationResult, bool) {
	return c.cache.Get(key)
}

// Set stores a result.
func (c *LRUCache) Set(_ context.Context, key string, result *core.ModerationResult) error {
	c.cache.Set(key, result)
	return nil
}

// Remove deletes a single entry.
func (c *LRUCache) Remove(_ context.Context, key string) error {
	c.cache.Remove(key)
	return nil
}

// Clear drops every entry.
func (c *LRUCache) Clear(_ context.Context) error {
	c.cache.Clear()
	return nil
}

// Stats reports cache occupancy.
func (c *LRUCache) Stats() core.CacheStats {
	stats := c.cache.Stats()
	return core.CacheStats{
		Capacity:    stats.Capacity,
		Count:       stats.Count,
		Utilization: stats.Utilization,
	}
}
