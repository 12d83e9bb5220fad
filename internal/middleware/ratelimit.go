package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // Number of requests allowed per window
	Window            time.Duration // Time window for rate limiting
	KeyPrefix         string        // Redis key prefix
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Duration
}

// Limiter counts requests per client key
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter is a fixed-window counter shared by every replica
type RedisLimiter struct {
	client *redis.Client
	config RateLimitConfig
}

// NewRedisLimiter creates a Redis-backed limiter
func NewRedisLimiter(client *redis.Client, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{client: client, config: config}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := fmt.Sprintf("%s:%s", l.config.KeyPrefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		l.client.Expire(ctx, redisKey, l.config.Window)
	}

	if count > int64(l.config.RequestsPerWindow) {
		ttl, err := l.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = l.config.Window
		}
		return Decision{Allowed: false, Remaining: 0, Reset: ttl}, nil
	}

	return Decision{Allowed: true, Remaining: l.config.RequestsPerWindow - int(count)}, nil
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is an in-process token bucket per client, used when Redis is not configured
type LocalLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

// NewLocalLimiter refills RequestsPerWindow tokens evenly over Window
func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	requests := config.RequestsPerWindow
	if requests < 1 {
		requests = 1
	}
	window := config.Window
	if window <= 0 {
		window = time.Minute
	}
	return &LocalLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Every(window / time.Duration(requests)),
		burst:     requests,
		idle:      3 * window,
		lastSweep: time.Now(),
	}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > l.idle {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	if !v.limiter.AllowN(now, 1) {
		return Decision{Allowed: false, Reset: time.Duration(float64(time.Second) / float64(l.limit))}, nil
	}
	return Decision{Allowed: true, Remaining: int(v.limiter.TokensAt(now))}, nil
}

// clientKey keys the quota by client IP. The limiter runs ahead of
// authentication, so admin requests are counted per address too.
func clientKey(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// RateLimitMiddleware rejects clients exceeding the limiter's quota with 429.
// Limiter failures let the request through.
func RateLimitMiddleware(limiter Limiter, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientKey(r)

			decision, err := limiter.Allow(r.Context(), clientID)
			if err != nil {
				logger.Error("Rate limit check failed",
					zap.Error(err),
					zap.String("client_id", clientID),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				logger.Warn("Rate limit exceeded",
					zap.String("client_id", clientID),
					zap.Int("limit", config.RequestsPerWindow),
				)

				retryAfter := int(decision.Reset.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(decision.Reset).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
