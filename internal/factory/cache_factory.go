package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/adapters/cache"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// CacheFactory creates result caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateResultCache creates a result cache based on the configuration. The
// "disabled" type turns result caching off entirely.
func (f *CacheFactory) CreateResultCache() (core.ResultCache, error) {
	cacheCfg := f.cfg.GetCache()

	switch cacheCfg.Type {
	case "lru":
		capacity := f.cfg.GetInt("pipeline.cache_capacity")
		return cache.NewLRUCache(capacity, f.logger)
	case "redis":
		ttl, err := f.cfg.GetDuration("cache.ttl")
		if err != nil {
			return nil, fmt.Errorf("invalid cache TTL: %w", err)
		}
		return cache.NewRedisCache(cacheCfg.RedisAddr, cacheCfg.RedisPassword, cacheCfg.RedisDB, ttl, f.logger)
	case "disabled":
		f.logger.Info("Result caching disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}
