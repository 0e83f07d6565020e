package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"coverletter-service/internal/logging"
	"coverletter-service/pkg/models"
)

// Limiter decides whether the client identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	clients map[string]*clientLimiter
	mu      sync.Mutex
	idleTTL time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter allows requestsPerMinute per client with the given burst
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{
		rps:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		idleTTL: 10 * time.Minute,
		stop:    make(chan struct{}),
	}
	go rl.cleanupRoutine(5 * time.Minute)
	return rl
}

// Allow reports whether the client identified by key may proceed now
func (rl *RateLimiter) Allow(_ context.Context, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, exists := rl.clients[key]
	if !exists {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = time.Now()

	return client.limiter.Allow()
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.idleTTL)
	for key, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Middleware rejects over-limit clients with 429
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return RateLimit(rl)
}

// RateLimit keys the limiter by client IP and rejects over-limit requests with 429
func RateLimit(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !limiter.Allow(c.Request().Context(), ip) {
				logging.GetGlobalLogger().Warn("Request rejected by rate limiter", map[string]interface{}{
					"request_id": GetRequestID(c),
					"client_ip":  ip,
					"path":       c.Path(),
				})
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: "Too many requests"})
			}
			return next(c)
		}
	}
}
