package cache

import (
	"fmt"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

// New creates a new cache based on configuration.
// "memory" returns the local LRU cache, "redis" the distributed one.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize, cfg.LocalTTL), nil

	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
