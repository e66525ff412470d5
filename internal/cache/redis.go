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

// setChunkSize bounds the number of members sent in a single SADD.
const setChunkSize = 10000

// NewRedisClient creates a pooled Redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   3,
		PoolTimeout:  4 * time.Second,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
	})

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Int("pool_size", cfg.PoolSize).
		Msg("connecting to redis")

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// redisCache implements Cache on top of a Redis client.
type redisCache struct {
	client  *redis.Client
	metrics *Metrics
	logger  zerolog.Logger
}

// NewRedisCache wraps client as a Cache. The client is owned by the caller
// and is not closed by Close.
func NewRedisCache(client *redis.Client, metrics *Metrics, logger zerolog.Logger) Cache {
	return &redisCache{
		client:  client,
		metrics: metrics,
		logger:  logger.With().Str("component", "redis_cache").Logger(),
	}
}

// Get returns the value stored under key. An empty value counts as a miss.
func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.metrics.miss(layerRedis)
			return nil, ErrMiss
		}
		c.metrics.fail(layerRedis)
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if len(val) == 0 {
		c.metrics.miss(layerRedis)
		return nil, ErrMiss
	}

	c.metrics.hit(layerRedis)
	return val, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.metrics.fail(layerRedis)
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.metrics.fail(layerRedis)
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Members(ctx context.Context, key string) ([]string, error) {
	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		c.metrics.fail(layerRedis)
		return nil, fmt.Errorf("failed to read set %s: %w", key, err)
	}
	return members, nil
}

func (c *redisCache) Add(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		queueSAdd(ctx, pipe, key, members)
		return nil
	})
	if err != nil {
		c.metrics.fail(layerRedis)
		return fmt.Errorf("failed to add to set %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Card(ctx context.Context, key string) (int64, error) {
	n, err := c.client.SCard(ctx, key).Result()
	if err != nil {
		c.metrics.fail(layerRedis)
		return 0, fmt.Errorf("failed to count set %s: %w", key, err)
	}
	return n, nil
}

// Replace runs DEL and SADD in one MULTI block so readers never observe a
// partially rebuilt set.
func (c *redisCache) Replace(ctx context.Context, key string, members []string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		queueSAdd(ctx, pipe, key, members)
		return nil
	})
	if err != nil {
		c.metrics.fail(layerRedis)
		return fmt.Errorf("failed to replace set %s: %w", key, err)
	}

	c.logger.Debug().Str("key", key).Int("members", len(members)).Msg("set replaced")
	return nil
}

func (c *redisCache) Close() error {
	return nil
}

func queueSAdd(ctx context.Context, pipe redis.Pipeliner, key string, members []string) {
	for start := 0; start < len(members); start += setChunkSize {
		end := min(start+setChunkSize, len(members))
		args := make([]any, 0, end-start)
		for _, m := range members[start:end] {
			args = append(args, m)
		}
		pipe.SAdd(ctx, key, args...)
	}
}
