// Package ratelimit counts requests per tenant in fixed windows.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// window identifies the fixed window containing now and the time left in it.
func window(now time.Time, size time.Duration) (bucket int64, left time.Duration) {
	secs := int64(size / time.Second)
	if secs <= 0 {
		secs = 1
	}
	bucket = now.Unix() / secs
	end := time.Unix((bucket+1)*secs, 0)
	return bucket, end.Sub(now)
}

func decide(count, limit int64, left time.Duration) Decision {
	d := Decision{Allowed: count <= limit, Limit: limit, Remaining: max(limit-count, 0)}
	if !d.Allowed {
		d.RetryAfter = left
	}
	return d
}
