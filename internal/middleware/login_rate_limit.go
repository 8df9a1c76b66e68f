package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const failurePrefix = "rl:auth-fail:"

// FailureLimiter counts failed credential checks per username in Redis and
// blocks further attempts once max failures land inside window. A nil limiter
// or nil client disables throttling.
type FailureLimiter struct {
	cache  *redis.Client
	max    int
	window time.Duration
}

// NewFailureLimiter builds a limiter; maxFailures <= 0 defaults to 5.
func NewFailureLimiter(cache *redis.Client, maxFailures int, window time.Duration) *FailureLimiter {
	if cache == nil {
		return nil
	}
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FailureLimiter{cache: cache, max: maxFailures, window: window}
}

// Blocked reports whether username has exhausted its failures. Cache errors
// fail open.
func (l *FailureLimiter) Blocked(ctx context.Context, username string) bool {
	if l == nil {
		return false
	}
	cnt, err := l.cache.Get(ctx, failureKey(username)).Int()
	if err != nil {
		return false
	}
	return cnt >= l.max
}

// Fail records one failed attempt.
func (l *FailureLimiter) Fail(ctx context.Context, username string) {
	if l == nil {
		return
	}
	key := failureKey(username)
	cnt, err := l.cache.Incr(ctx, key).Result()
	if err == nil && cnt == 1 {
		l.cache.Expire(ctx, key, l.window)
	}
}

// Reset clears the failure count after a successful login.
func (l *FailureLimiter) Reset(ctx context.Context, username string) {
	if l == nil {
		return
	}
	l.cache.Del(ctx, failureKey(username))
}

func failureKey(username string) string {
	return failurePrefix + strings.ToLower(strings.TrimSpace(username))
}
