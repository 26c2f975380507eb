package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"careerpilot-backend/internal/shared/telemetry"
)

// Limiter decides whether a principal may proceed within the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RedisLimiter implements a fixed-window counter in Redis so the limit holds
// across api replicas.
type RedisLimiter struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
	Prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{Client: client, Limit: limit, Window: window, Prefix: "ratelimit"}
}

// Allow increments the window counter and compares it to the limit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	window := time.Now().UTC().Truncate(l.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.Prefix, key, window.Unix())

	pipe := l.Client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	if count.Val() > int64(l.Limit) {
		return false, time.Until(window.Add(l.Window)), nil
	}
	return true, 0, nil
}

// MemoryLimiter is the single-process fallback used in development and tests.
type MemoryLimiter struct {
	Limit  int
	Window time.Duration
	Now    func() time.Time

	mu     sync.Mutex
	counts map[string]int
	resets map[string]time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		Limit:  limit,
		Window: window,
		Now:    time.Now,
		counts: make(map[string]int),
		resets: make(map[string]time.Time),
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	now := l.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if reset, ok := l.resets[key]; !ok || now.After(reset) {
		l.counts[key] = 0
		l.resets[key] = now.Add(l.Window)
	}
	l.counts[key]++
	if l.counts[key] > l.Limit {
		return false, time.Until(l.resets[key]), nil
	}
	return true, 0, nil
}

// RateLimit throttles requests per user, falling back to client IP for
// unidentified callers. Limiter errors fail open: shedding all traffic when
// Redis is down hurts more than briefly missing the limit.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), principal)
		if err != nil {
			telemetry.Warn("rate_limit.unavailable", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      err.Error(),
			})
			c.Next()
			return
		}
		if allowed {
			c.Next()
			return
		}

		seconds := int(retryAfter / time.Second)
		if seconds <= 0 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":        "rate_limited",
			"retryAfterMs": seconds * 1000,
		})
	}
}
