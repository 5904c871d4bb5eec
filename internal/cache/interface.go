package cache

import (
	"context"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Generation reports the version counter kept beside key, 0 when unset.
	Generation(ctx context.Context, key string) (int64, error)
	// Bump advances the version counter and returns the new value.
	Bump(ctx context.Context, key string) (int64, error)
	Close() error
}

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

const (
	ProductKeyPrefix = "product"
	CartKeyPrefix    = "cart"
)
