package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rl:"

// RedisStore is a Store backed by Redis, for deployments that want counters
// shared across instances. Counters use INCR with a window-length expiry set
// on first hit.
type RedisStore struct {
	client *redis.Client
	window time.Duration
}

// NewRedisStore builds a Redis-backed store for the given window.
func NewRedisStore(client *redis.Client, window time.Duration) *RedisStore {
	return &RedisStore{client: client, window: window}
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string) (int64, time.Time, error) {
	redisKey := redisKeyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit incr: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, s.window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("ratelimit expire: %w", err)
		}
	}

	ttl, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = s.window
	}
	return count, time.Now().Add(ttl), nil
}
