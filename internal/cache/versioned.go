package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Versioned entries live under "<base>:v<generation>". Writers call Invalidate
// after committing, which moves the generation forward; a reader that started
// loading before the commit stores its result under the old generation, where
// no later reader looks.

func versionedKey(base string, gen int64) string {
	return fmt.Sprintf("%s:v%d", base, gen)
}

// VersionedKey returns the entry key readers of base must use right now.
func VersionedKey(ctx context.Context, c Cache, base string) (string, error) {

	gen, err := c.Generation(ctx, base)
	if err != nil {
		return "", err
	}

	return versionedKey(base, gen), nil
}

// Invalidate retires every entry cached for base.
func Invalidate(ctx context.Context, c Cache, base string) error {

	gen, err := c.Bump(ctx, base)
	if err != nil {
		return err
	}

	// unreachable after the bump; dropping it only frees memory early
	if err := c.Delete(ctx, versionedKey(base, gen-1)); err != nil {
		return fmt.Errorf("generation of %s advanced to %d but old entry remains: %w", base, gen, err)
	}

	return nil
}

// ReadVersioned is ReadThrough over the current generation of base. When the
// generation cannot be read there is no safe entry to use, so load runs directly.
func ReadVersioned[T any](ctx context.Context, c Cache, group *singleflight.Group, base string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {

	key, err := VersionedKey(ctx, c, base)
	if err != nil {
		slog.WarnContext(ctx, "Cache generation unavailable, reading store directly", slog.String("key", base), slog.Any("error", err))
		return load(ctx)
	}

	return ReadThrough(ctx, c, group, key, ttl, load)
}
