package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles requests per key with a Redis counter. The first
// hit in a window sets the expiry; exclusion is delegated to Redis, no
// in-process state.
type RateLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// ByIP limits requests per client address.
func (r *RateLimiter) ByIP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("%s:%s", r.prefix, c.IP())
		count, err := r.rdb.Incr(c.Context(), key).Result()
		if err != nil {
			// Redis being down should not lock everyone out.
			return c.Next()
		}
		if count == 1 {
			if err := r.rdb.Expire(c.Context(), key, r.window).Err(); err != nil {
				// Without an expiry the counter would throttle this
				// client forever. Drop it and let the request through.
				r.rdb.Del(c.Context(), key)
				return c.Next()
			}
		}
		if count > int64(r.limit) {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, please try again later")
		}
		return c.Next()
	}
}
