package cache

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// tieredCache reads through a local L1 into a shared L2. Concurrent L1 misses
// for the same key share a single L2 round trip. Sets live only in L2.
type tieredCache struct {
	l1    Cache
	l2    Cache
	l1TTL time.Duration
	group singleflight.Group
}

// NewTieredCache layers l1 in front of l2. Values copied from l2 into l1 expire after l1TTL.
func NewTieredCache(l1, l2 Cache, l1TTL time.Duration) Cache {
	return &tieredCache{
		l1:    l1,
		l2:    l2,
		l1TTL: l1TTL,
	}
}

func (c *tieredCache) Get(ctx context.Context, key string) ([]byte, error) {
	if val, err := c.l1.Get(ctx, key); err == nil {
		return val, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		data, err := c.l2.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		_ = c.l1.Set(ctx, key, data, c.l1TTL)
		return data, nil
	})
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return val.([]byte), nil
}

func (c *tieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		_ = c.l1.Delete(ctx, key)
		return err
	}
	l1TTL := c.l1TTL
	if ttl > 0 && ttl < l1TTL {
		l1TTL = ttl
	}
	return c.l1.Set(ctx, key, value, l1TTL)
}

// Delete removes key from both layers. Another instance may still hold the
// key in its own L1 until that entry expires.
func (c *tieredCache) Delete(ctx context.Context, key string) error {
	_ = c.l1.Delete(ctx, key)
	return c.l2.Delete(ctx, key)
}

func (c *tieredCache) Members(ctx context.Context, key string) ([]string, error) {
	return c.l2.Members(ctx, key)
}

func (c *tieredCache) Add(ctx context.Context, key string, members ...string) error {
	return c.l2.Add(ctx, key, members...)
}

func (c *tieredCache) Card(ctx context.Context, key string) (int64, error) {
	return c.l2.Card(ctx, key)
}

func (c *tieredCache) Replace(ctx context.Context, key string, members []string) error {
	return c.l2.Replace(ctx, key, members)
}

func (c *tieredCache) Close() error {
	return errors.Join(c.l1.Close(), c.l2.Close())
}
