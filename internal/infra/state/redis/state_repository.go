// Package redisstate implements repository.StateRepository on Redis.
package redisstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStateRepository keeps rate counters and flush stamps in Redis.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateRepository creates a RedisStateRepository. The prefix
// namespaces all keys; it defaults to "cc:".
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "cc:"
	}
	return &RedisStateRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisStateRepository) flushKey(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:flushed_at", r.keyPrefix, roomID)
}

// CheckRateLimit increments the counter behind key and refreshes its
// expiry in one pipeline round trip, then reports whether the count
// went over the limit.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: pipeline failed for rate limit check on key %s: %w", key, err)
	}
	count, err := incrCmd.Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to get incr result for rate limit on key %s: %w", key, err)
	}
	return count > int64(limit), nil
}

// MarkFlushed stores the checkpoint time as unix millis. The stamp
// expires after a day so abandoned rooms do not leak keys.
func (r *RedisStateRepository) MarkFlushed(ctx context.Context, roomID uint, at time.Time) error {
	key := r.flushKey(roomID)
	err := r.client.Set(ctx, key, strconv.FormatInt(at.UnixMilli(), 10), 24*time.Hour).Err()
	if err != nil {
		return fmt.Errorf("redis: failed to mark flush for room %d on key %s: %w", roomID, key, err)
	}
	return nil
}

// LastFlushed reads the checkpoint stamp; a missing key means never flushed.
func (r *RedisStateRepository) LastFlushed(ctx context.Context, roomID uint) (time.Time, error) {
	key := r.flushKey(roomID)
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("redis: failed to get flush stamp for room %d from %s: %w", roomID, key, err)
	}
	millis, parseErr := strconv.ParseInt(val, 10, 64)
	if parseErr != nil {
		return time.Time{}, fmt.Errorf("redis: failed to parse flush stamp '%s' for room %d: %w", val, roomID, parseErr)
	}
	return time.UnixMilli(millis), nil
}
