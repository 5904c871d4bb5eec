package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/config"
	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
	cfg    *config.CacheConfig
	jitter func(ttl time.Duration) time.Duration
}

type Option func(*redisCache)

// WithJitter replaces the TTL spread applied on Set. Passing nil disables it.
func WithJitter(fn func(ttl time.Duration) time.Duration) Option {
	return func(r *redisCache) {
		r.jitter = fn
	}
}

// spread expirations over an extra 0-10% so entries written together do not expire together
func defaultJitter(ttl time.Duration) time.Duration {
	spread := int64(ttl / 10)
	if spread <= 0 {
		return 0
	}

	return time.Duration(rand.Int64N(spread))
}

func NewRedisCache(client *redis.Client, cfg *config.CacheConfig, opts ...Option) Cache {
	r := &redisCache{
		client: client,
		cfg:    cfg,
		jitter: defaultJitter,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *redisCache) Get(ctx context.Context, key string, value any) (bool, error) {

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {

		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("failed to get key %s from redis: %w", key, err)

	}

	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache data for key %s: %w", key, err)
	}

	return true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if ttl <= 0 {
		ttl = r.cfg.DefaultTTL
	}

	if r.jitter != nil {
		ttl += r.jitter(ttl)
	}

	err = r.client.Set(ctx, key, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set key %s in redis: %w", key, err)
	}

	return nil

}

func (r *redisCache) Delete(ctx context.Context, key string) error {

	err := r.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete key %s from redis: %w", key, err)
	}

	return nil

}

func generationKey(key string) string {
	return key + ":gen"
}

func (r *redisCache) Generation(ctx context.Context, key string) (int64, error) {

	gen, err := r.client.Get(ctx, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to read generation of %s from redis: %w", key, err)
	}

	return gen, nil
}

// Bump increments the counter without a TTL: letting it expire would reset it
// to a value older entries may still be stored under.
func (r *redisCache) Bump(ctx context.Context, key string) (int64, error) {

	gen, err := r.client.Incr(ctx, generationKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to bump generation of %s in redis: %w", key, err)
	}

	return gen, nil
}

func (r *redisCache) Close() error {
	return nil
}
