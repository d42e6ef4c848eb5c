package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/formbricks/storefront/internal/api/response"
)

// RateLimitedRecorder records rejected requests (optional).
type RateLimitedRecorder interface {
	RecordRateLimited(ctx context.Context, route string)
}

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
	// MaxClients bounds how many per-client limiters are kept.
	MaxClients int
	// IdleTTL is how long a client's limiter is kept before it is rebuilt.
	IdleTTL time.Duration
	// TrustForwardedFor keys clients by the first X-Forwarded-For entry.
	TrustForwardedFor bool
}

const (
	defaultRateLimitClients = 10000
	defaultRateLimitIdleTTL = 10 * time.Minute
)

// RateLimit applies a token bucket per client IP and answers 429 when it is empty.
func RateLimit(cfg RateLimitConfig, recorder RateLimitedRecorder) func(http.Handler) http.Handler {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = defaultRateLimitClients
	}

	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultRateLimitIdleTTL
	}

	limiters := &clientLimiters{
		cache: expirable.NewLRU[string, *rate.Limiter](cfg.MaxClients, nil, cfg.IdleTTL),
		limit: rate.Limit(cfg.PerSecond),
		burst: cfg.Burst,
	}

	retryAfter := "1"
	if cfg.PerSecond > 0 && cfg.PerSecond < 1 {
		retryAfter = strconv.Itoa(int(1/cfg.PerSecond + 0.5))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(clientIP(r, cfg.TrustForwardedFor)).Allow() {
				if recorder != nil {
					recorder.RecordRateLimited(r.Context(), normalizeRoute(r))
				}

				w.Header().Set("Retry-After", retryAfter)
				response.RespondTooManyRequests(w, "Rate limit exceeded, try again later")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type clientLimiters struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *rate.Limiter]
	limit rate.Limit
	burst int
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.cache.Get(key); ok {
		return l
	}

	l := rate.NewLimiter(c.limit, c.burst)
	c.cache.Add(key, l)

	return l
}

func clientIP(r *http.Request, trustForwardedFor bool) string {
	if trustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
