package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/utils"
	"golang.org/x/sync/singleflight"
)

// ReadThrough returns the cached value for key, calling load on a miss and
// storing its result. Concurrent misses for the same key share one load.
// Cache faults are logged and never returned: the loader is the source of truth.
//
// The shared load is detached from the caller's cancellation so one abandoned
// request cannot fail everyone waiting on the same key. It is bounded by two
// store timeouts instead: one for the cache round trips, one for load.
func ReadThrough[T any](ctx context.Context, c Cache, group *singleflight.Group, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {

	flight := group.DoChan(key, func() (any, error) {

		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*utils.DBTimeout())
		defer cancel()

		var cached T

		found, err := c.Get(flightCtx, key, &cached)
		if err != nil {
			slog.WarnContext(flightCtx, "Cache read failed, falling back to store", slog.String("key", key), slog.Any("error", err))
		}

		if found {
			return cached, nil
		}

		loaded, err := load(flightCtx)
		if err != nil {
			return loaded, err
		}

		if err := c.Set(flightCtx, key, loaded, ttl); err != nil {
			slog.WarnContext(flightCtx, "Cache write failed", slog.String("key", key), slog.Any("error", err))
		}

		return loaded, nil
	})

	var zero T

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			if typed, ok := res.Val.(T); ok {
				return typed, res.Err
			}

			return zero, res.Err
		}

		return res.Val.(T), nil
	}
}
