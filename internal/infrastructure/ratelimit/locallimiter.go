package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/spendwise/spendwise/internal/shared/logger"
)

// LocalRateLimiter keeps per-process counters in a bounded LRU. Limits are
// per instance, so it serves single-node deployments and Redis outages.
type LocalRateLimiter struct {
	mu       sync.Mutex
	counters *expirable.LRU[string, int64]
	limit    int64
	size     time.Duration
	now      func() time.Time
}

func NewLocalRateLimiter(capacity, limit int, size time.Duration) *LocalRateLimiter {
	return &LocalRateLimiter{
		counters: expirable.NewLRU[string, int64](capacity, nil, size+time.Second),
		limit:    int64(limit),
		size:     size,
		now:      time.Now,
	}
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	bucket, left := window(l.now(), l.size)
	k := fmt.Sprintf("%s:%d", key, bucket)

	l.mu.Lock()
	count, _ := l.counters.Get(k)
	count++
	l.counters.Add(k, count)
	l.mu.Unlock()

	return decide(count, l.limit, left), nil
}

// FallbackLimiter consults primary and switches to the local counter for
// any call primary cannot answer.
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	logger   logger.Interface
}

func NewFallbackLimiter(primary, fallback Limiter, logger logger.Interface) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, fallback: fallback, logger: logger}
}

func (l *FallbackLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	d, err := l.primary.Allow(ctx, key)
	if err == nil {
		return d, nil
	}
	l.logger.Warnw("rate limiter unavailable, using local counters", "key", key, "error", err)
	return l.fallback.Allow(ctx, key)
}
