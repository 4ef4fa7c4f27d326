package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/lycosidae/gateway/pkg/httputil"
	"github.com/lycosidae/gateway/pkg/observability"
)

// LoginRateLimitConfig defines how many login attempts a client may make
// within a fixed window.
type LoginRateLimitConfig struct {
	// AttemptsPerWindow is the max login attempts allowed in the time window
	AttemptsPerWindow int
	// WindowDuration is the time window for counting attempts
	WindowDuration time.Duration
}

// DefaultLoginRateLimitConfig returns the default login throttle settings.
func DefaultLoginRateLimitConfig() *LoginRateLimitConfig {
	return &LoginRateLimitConfig{
		AttemptsPerWindow: 10,
		WindowDuration:    time.Minute,
	}
}

// LoginRateLimiter throttles login attempts using Redis so the limit is
// shared across gateway instances. On Redis errors it fails open: an
// unreachable Redis must not lock everyone out of the platform.
type LoginRateLimiter struct {
	redis  *redis.Client
	config *LoginRateLimitConfig
	prefix string
	logger *observability.Logger
}

// NewLoginRateLimiter creates a Redis-backed login rate limiter. A nil
// redisClient disables limiting entirely (every attempt is allowed).
func NewLoginRateLimiter(redisClient *redis.Client, config *LoginRateLimitConfig, logger *observability.Logger) *LoginRateLimiter {
	if config == nil {
		config = DefaultLoginRateLimitConfig()
	}

	return &LoginRateLimiter{
		redis:  redisClient,
		config: config,
		prefix: "login",
		logger: logger,
	}
}

// Allow reports whether another login attempt is permitted for the key.
func (rl *LoginRateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.redis == nil {
		return true
	}

	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.WindowDuration)

	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open: a Redis outage must not block logins
		rl.logger.WithError(err).Warn("login rate limiter unavailable, allowing attempt")
		return true
	}

	return incr.Val() <= int64(rl.config.AttemptsPerWindow)
}

// RetryAfter returns the time until the attempt window resets.
func (rl *LoginRateLimiter) RetryAfter(ctx context.Context, key string) time.Duration {
	if rl.redis == nil {
		return 0
	}

	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)
	ttl, err := rl.redis.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		return rl.config.WindowDuration
	}
	return ttl
}

// Reset clears the attempt counter for a key.
func (rl *LoginRateLimiter) Reset(ctx context.Context, key string) error {
	if rl.redis == nil {
		return nil
	}
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}

// Handler wraps the login handler with per-client throttling, keyed by
// client IP.
func (rl *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + clientIP(r)

		if !rl.Allow(r.Context(), key) {
			httputil.WriteTooManyRequests(w, "too many login attempts", rl.RetryAfter(r.Context(), key))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP identifies the caller. Behind chained proxies X-Forwarded-For is
// a comma-separated list; only the first element is the client, the rest is
// attacker-appendable.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	return r.RemoteAddr
}
