package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"coverletter-service/internal/logging"
)

const redisKeyPrefix = "coverletter:ratelimit:"

// RedisRateLimiter counts requests per client in fixed one-minute windows
// stored in Redis, so several instances share the same budget.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger logging.Logger
	now    func() time.Time
}

// NewRedisRateLimiter connects to redisURL and allows requestsPerMinute per client
func NewRedisRateLimiter(redisURL string, requestsPerMinute int, logger logging.Logger) (*RedisRateLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &RedisRateLimiter{
		client: redis.NewClient(opts),
		limit:  int64(requestsPerMinute),
		window: time.Minute,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Ping tests the Redis connection
func (r *RedisRateLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisRateLimiter) Close() error {
	return r.client.Close()
}

// Allow increments the client's counter for the current window.
// Redis errors let the request through.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	windowKey := r.windowKey(key)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.Expire(ctx, windowKey, r.window)
		return nil
	})
	if err != nil {
		r.logger.Warn("Rate limit store unavailable, allowing request", map[string]interface{}{
			"client_ip": key,
			"error":     err.Error(),
		})
		return true
	}

	return incr.Val() <= r.limit
}

func (r *RedisRateLimiter) windowKey(key string) string {
	window := r.now().Truncate(r.window).Unix()
	return fmt.Sprintf("%s%s:%d", redisKeyPrefix, key, window)
}
