package utils

import (
	"context"
	"sync/atomic"
	"time"
)

const DefaultDBTimeout = 5 * time.Second

var dbTimeout atomic.Int64

func init() {
	dbTimeout.Store(int64(DefaultDBTimeout))
}

// SetDBTimeout changes the deadline applied by WithDBTimeout. Non-positive values restore the default.
func SetDBTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultDBTimeout
	}

	dbTimeout.Store(int64(d))
}

func DBTimeout() time.Duration {
	return time.Duration(dbTimeout.Load())
}

func WithDBTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DBTimeout())
}
