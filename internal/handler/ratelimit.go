package handler

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/config"
	"golang.org/x/time/rate"
)

// RateLimitTier selects the budget a route draws from.
type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	TierLogin  RateLimitTier = "login"
)

const (
	limiterTTL      = 15 * time.Minute
	cleanupInterval = 5 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per (tier, client IP).
type RateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	budgets     map[RateLimitTier]int
	lastCleanup time.Time
	now         func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		budgets: map[RateLimitTier]int{
			TierPublic: cfg.PublicPerMinute,
			TierLogin:  cfg.LoginPer15Minutes,
		},
		now: time.Now,
	}
}

// Limit returns middleware drawing from the tier's bucket. A tier with a
// non-positive budget is unlimited.
func (l *RateLimiter) Limit(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := l.limiter(tier, clientIP(r))
			if limiter != nil && !limiter.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds(tier)))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *RateLimiter) limiter(tier RateLimitTier, key string) *rate.Limiter {
	budget := l.budgets[tier]
	if budget <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) > cleanupInterval {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > limiterTTL {
				delete(l.limiters, k)
			}
		}
		l.lastCleanup = now
	}

	lookup := string(tier) + ":" + key
	if e, ok := l.limiters[lookup]; ok {
		e.lastSeen = now
		return e.limiter
	}

	// Bursts up to the full budget, then refills evenly over the window.
	limiter := rate.NewLimiter(rate.Every(l.refill(tier)), budget)
	l.limiters[lookup] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// refill is the time for one token to return to the tier's bucket.
func (l *RateLimiter) refill(tier RateLimitTier) time.Duration {
	budget := l.budgets[tier]
	if tier == TierLogin {
		return 15 * time.Minute / time.Duration(budget)
	}
	return time.Minute / time.Duration(budget)
}

func (l *RateLimiter) retryAfterSeconds(tier RateLimitTier) int {
	secs := int(l.refill(tier).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// clientIP keys buckets by remote host. chi's RealIP middleware has already
// rewritten RemoteAddr from trusted forwarding headers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
