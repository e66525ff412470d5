package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"discount-codes/internal/config"

	"github.com/dgraph-io/ristretto"
)

// localCache keeps values in a ristretto cache and sets in plain maps.
// Sets are never evicted.
type localCache struct {
	values  *ristretto.Cache
	metrics *Metrics

	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

// NewLocalCache creates an in-process Cache sized by cfg.
func NewLocalCache(cfg config.CacheConfig, metrics *Metrics) (Cache, error) {
	maxCost := cfg.L1MaxCost
	if maxCost == 0 {
		maxCost = 10 << 20
	}
	numCounters := cfg.L1NumCounters
	if numCounters == 0 {
		numCounters = 100000
	}

	values, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}

	return &localCache{
		values:  values,
		metrics: metrics,
		sets:    make(map[string]map[string]struct{}),
	}, nil
}

func (c *localCache) Get(_ context.Context, key string) ([]byte, error) {
	val, found := c.values.Get(key)
	if !found {
		c.metrics.miss(layerLocal)
		return nil, ErrMiss
	}

	data, ok := val.([]byte)
	if !ok || len(data) == 0 {
		c.metrics.miss(layerLocal)
		return nil, ErrMiss
	}

	c.metrics.hit(layerLocal)
	return data, nil
}

// Set stores value with a cost equal to its length. Writes are applied
// before Set returns.
func (c *localCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.values.SetWithTTL(key, stored, int64(len(stored)), ttl)
	c.values.Wait()
	return nil
}

func (c *localCache) Delete(_ context.Context, key string) error {
	c.values.Del(key)
	return nil
}

func (c *localCache) Members(_ context.Context, key string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set := c.sets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}

func (c *localCache) Add(_ context.Context, key string, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.sets[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		c.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (c *localCache) Card(_ context.Context, key string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.sets[key])), nil
}

func (c *localCache) Replace(_ context.Context, key string, members []string) error {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}

	c.mu.Lock()
	c.sets[key] = set
	c.mu.Unlock()
	return nil
}

func (c *localCache) Close() error {
	c.values.Close()
	return nil
}
