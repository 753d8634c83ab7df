package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/codezero/photomap/pkg/response"
)

// RateLimitConfig holds configuration for the rate limiter middleware.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit (tokens added per second).
	RequestsPerSecond float64
	// Burst is the maximum number of requests allowed in a burst.
	Burst int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimiter creates a per-client limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &RateLimiter{cfg: cfg, clients: make(map[string]*clientLimiter)}
}

func (l *RateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cl, ok := l.clients[ip]; ok {
		cl.lastSeen = time.Now()
		return cl.limiter
	}
	lim := rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)
	l.clients[ip] = &clientLimiter{limiter: lim, lastSeen: time.Now()}
	return lim
}

// Sweep drops limiters idle for longer than idle.
func (l *RateLimiter) Sweep(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, cl := range l.clients {
		if time.Since(cl.lastSeen) > idle {
			delete(l.clients, ip)
		}
	}
}

// Handler rejects requests over the limit with 429 and Retry-After.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := l.limiter(c.ClientIP())
		reservation := lim.Reserve()
		if !reservation.OK() {
			response.TooManyRequests(c, "rate limit exceeded")
			c.Abort()
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			response.TooManyRequests(c, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.cfg.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(lim.Tokens())))
		c.Next()
	}
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *RateLimiter) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(idle)
		}
	}
}
