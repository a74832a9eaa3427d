package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// keyPrefix namespaces moderation entries inside a shared Redis database.
const keyPrefix = "moderation:"

// RedisCache is the shared result cache backend. Entries are stored as JSON
// with a TTL; eviction is left to Redis itself. Lookup errors degrade to
// cache misses so a flaky Redis never breaks analysis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed result cache and verifies the
// connection.
func NewRedisCache(addr, password string, db int, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Using Redis result cache",
		zap.String("addr", addr),
		zap.Duration("ttl", ttl))

	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

// NewRedisCacheWithClient wraps an existing client. Used by tests.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Get retrieves a cached result. Any backend or decode error is reported as
// a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*core.ModerationResult, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Redis lookup failed, treating as miss", zap.Error(err))
		}
		return nil, false
	}

	var result core.ModerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("Failed to decode cached result, treating as miss", zap.Error(err))
		return nil, false
	}
	return &result, true
}

// Set stores a result with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, result *core.ModerationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return nil
}

// Remove deletes a single entry.
func (c *RedisCache) Remove(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Clear deletes every moderation entry. Other keys in the database are left
// alone.
func (c *RedisCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
