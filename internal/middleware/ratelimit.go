package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding-window limiter keyed by client IP and backed by a Redis
// sorted set. With a nil client every request is allowed. Redis failures fail open.
type RateLimiter struct {
	redis     *redis.Client
	ips       *ClientIPResolver
	limit     int
	window    time.Duration
	keyPrefix string
	log       *logger.Logger
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, prefix string, ips *ClientIPResolver, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		redis:     redisClient,
		ips:       ips,
		limit:     limit,
		window:    window,
		keyPrefix: "ratelimit:" + prefix + ":",
		log:       log,
	}
}

func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	if rl.redis == nil || rl.limit <= 0 {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		key := rl.keyPrefix + rl.ips.ClientIP(r)

		allowed, remaining, resetTime := rl.allowRequest(r.Context(), key)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			retry := int(time.Until(resetTime).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (rl *RateLimiter) allowRequest(ctx context.Context, key string) (bool, int, time.Time) {
	now := time.Now()
	windowStart := now.Add(-rl.window)

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	zcard := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		rl.log.Warn("rate limiter unavailable: %v", err)
		return true, rl.limit, now.Add(rl.window)
	}

	count := int(zcard.Val())
	if count >= rl.limit {
		resetTime := now.Add(rl.window)
		oldest, err := rl.redis.ZRangeWithScores(ctx, key, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			resetTime = time.Unix(0, int64(oldest[0].Score)).Add(rl.window)
		}
		return false, 0, resetTime
	}

	remaining := rl.limit - count - 1
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining, now.Add(rl.window)
}

// String identifies the limiter in startup logs.
func (rl *RateLimiter) String() string {
	if rl.redis == nil {
		return "disabled"
	}
	return fmt.Sprintf("%d req/%s", rl.limit, rl.window)
}
