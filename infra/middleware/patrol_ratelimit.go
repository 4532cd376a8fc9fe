package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"patrol_server/pkg/apperr"
	"patrol_server/pkg/logger"
	"patrol_server/pkg/response"
)

// RateLimiter throttles scrape-triggering endpoints per client IP. With
// a Redis client the window counters are shared across instances;
// without one it falls back to an in-process map.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration

	mu       sync.Mutex
	requests map[string][]time.Time
}

// NewRateLimiter creates a rate limiter. redisClient may be nil.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		redis:    redisClient,
		limit:    limit,
		window:   window,
		requests: make(map[string][]time.Time),
	}

	if redisClient == nil {
		go rl.cleanup()
	}
	return rl
}

// Handler returns the Fiber middleware.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()

		var (
			allowed   bool
			remaining int
			err       error
		)
		if rl.redis != nil {
			allowed, remaining, err = rl.allowRedis(c.Context(), ip)
			if err != nil {
				// Redis down: let the request through rather than
				// blocking ingestion entirely.
				logger.WithError(err).Warn("rate limiter redis check failed, allowing request")
				return c.Next()
			}
		} else {
			allowed, remaining = rl.allowLocal(ip)
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			return response.Error(c, fiber.StatusTooManyRequests,
				apperr.ErrRateLimited.Code, apperr.ErrRateLimited.Message)
		}

		return c.Next()
	}
}

func (rl *RateLimiter) allowRedis(ctx context.Context, ip string) (bool, int, error) {
	key := fmt.Sprintf("patrol:ratelimit:%s:%d", ip, time.Now().Unix()/int64(rl.window.Seconds()))

	pipe := rl.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := int(incr.Val())
	remaining := rl.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.limit, remaining, nil
}

func (rl *RateLimiter) allowLocal(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	recent := rl.requests[ip][:0]
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.requests[ip] = recent
		return false, 0
	}

	rl.requests[ip] = append(recent, now)
	return true, rl.limit - len(recent) - 1
}

// cleanup drops idle IPs from the local map.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.window)
		for ip, times := range rl.requests {
			alive := false
			for _, t := range times {
				if t.After(cutoff) {
					alive = true
					break
				}
			}
			if !alive {
				delete(rl.requests, ip)
			}
		}
		rl.mu.Unlock()
	}
}
