// Package ratelimit provides a Redis-backed store for echo's rate limiter,
// so that every replica of the relay shares one per-IP budget.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "prtrigger:ratelimit"

// RedisStore implements echo's middleware.RateLimiterStore with a fixed
// window counter: INCR the window's key, set its expiry, compare to limit.
//
// It fails open. When Redis is unreachable requests are allowed and the
// error is logged; the relay stays available without its limiter.
type RedisStore struct {
	client  *redis.Client
	limit   int64
	window  time.Duration
	timeout time.Duration
	logger  *zerolog.Logger

	now  func() time.Time
	incr func(ctx context.Context, key string) (int64, error)
}

func NewRedisStore(client *redis.Client, limit int, window time.Duration, logger *zerolog.Logger) *RedisStore {
	s := &RedisStore{
		client:  client,
		limit:   int64(limit),
		window:  window,
		timeout: 500 * time.Millisecond,
		logger:  logger,
		now:     time.Now,
	}
	s.incr = s.incrWindow
	return s
}

// Allow reports whether identifier still has budget in the current window.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	// echo's store interface carries no context.
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	key := s.key(identifier)

	count, err := s.incr(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("rate limit store unavailable, allowing request")
		return true, err
	}

	return count <= s.limit, nil
}

// incrWindow bumps the window counter and (re)sets its expiry atomically.
func (s *RedisStore) incrWindow(ctx context.Context, key string) (int64, error) {
	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return count.Val(), nil
}

func (s *RedisStore) key(identifier string) string {
	bucket := s.now().UnixNano() / int64(s.window)
	return fmt.Sprintf("%s:%s:%d", keyPrefix, identifier, bucket)
}
