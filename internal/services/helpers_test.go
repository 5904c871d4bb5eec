package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// memoryCache is a JSON round-tripping stand-in for the Redis cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gens    map[string]int64
	failAll bool
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, gens: map[string]int64{}}
}

var errCacheDown = errors.New("cache unavailable")

func (c *memoryCache) Get(_ context.Context, key string, value any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failAll {
		return false, errCacheDown
	}

	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}

	return true, json.Unmarshal(data, value)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failAll {
		return errCacheDown
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.entries[key] = data

	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deletes = append(c.deletes, key)

	if c.failAll {
		return errCacheDown
	}

	delete(c.entries, key)

	return nil
}

func (c *memoryCache) Generation(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failAll {
		return 0, errCacheDown
	}

	return c.gens[key], nil
}

func (c *memoryCache) Bump(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failAll {
		return 0, errCacheDown
	}

	c.gens[key]++

	return c.gens[key], nil
}

// generation reports the counter for key without going through the Cache interface.
func (c *memoryCache) generation(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gens[key]
}

func (c *memoryCache) Close() error {
	return nil
}
