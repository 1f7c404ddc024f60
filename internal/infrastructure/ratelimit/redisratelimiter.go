package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spendwise/spendwise/internal/shared/constants"
)

// RedisRateLimiter is a fixed-window counter shared by every instance.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int64
	size   time.Duration
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, limit int, size time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: int64(limit), size: size, now: time.Now}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	bucket, left := window(l.now(), l.size)
	redisKey := fmt.Sprintf("%s%s:%d", constants.RedisPrefixRateLimit, key, bucket)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.size+time.Second).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}
	return decide(count, l.limit, left), nil
}
