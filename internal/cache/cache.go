// Package cache provides the key-value and set caches that sit in front of
// the discount code store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discount-codes/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrMiss is returned by Store.Get when the key is absent.
// Connectivity and decoding failures are reported as other errors.
var ErrMiss = errors.New("cache miss")

// Store is an opaque key-value cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SetStore holds named sets of strings.
type SetStore interface {
	// Members returns every member of the set, or an empty slice if the set does not exist.
	Members(ctx context.Context, key string) ([]string, error)

	// Add inserts members into the set.
	Add(ctx context.Context, key string, members ...string) error

	// Card returns the number of members in the set.
	Card(ctx context.Context, key string) (int64, error)

	// Replace atomically swaps the content of the set for members.
	Replace(ctx context.Context, key string, members []string) error
}

// Cache combines Store and SetStore.
type Cache interface {
	Store
	SetStore
	Close() error
}

// New builds the cache selected by cfg.Mode. client may be nil when the mode
// does not need Redis.
func New(cfg config.CacheConfig, client *redis.Client, metrics *Metrics, logger zerolog.Logger) (Cache, error) {
	switch cfg.Mode {
	case config.CacheModeNone:
		return NewNopCache(), nil
	case config.CacheModeLocal:
		return NewLocalCache(cfg, metrics)
	case config.CacheModeRedis:
		if client == nil {
			return nil, fmt.Errorf("cache mode %s requires a redis client", cfg.Mode)
		}
		return NewRedisCache(client, metrics, logger), nil
	case config.CacheModeTiered:
		if client == nil {
			return nil, fmt.Errorf("cache mode %s requires a redis client", cfg.Mode)
		}
		l1, err := NewLocalCache(cfg, metrics)
		if err != nil {
			return nil, err
		}
		return NewTieredCache(l1, NewRedisCache(client, metrics, logger), cfg.TTLDuration()), nil
	default:
		return nil, fmt.Errorf("unknown cache mode: %s", cfg.Mode)
	}
}
