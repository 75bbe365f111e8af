package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetOrSet returns the cached value under key, or runs fetch and stores the
// result with the given TTL. Cache errors degrade to a direct fetch so a
// Redis outage never takes the read path down with it.
func GetOrSet[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	raw, err := rdb.Get(ctx, key).Result()
	if err == nil {
		var cached T
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		// Unreadable entry, drop it and refetch.
		rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("cache read failed", "key", key, "error", err)
	}

	fresh, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	if data, err := json.Marshal(fresh); err == nil {
		if err := rdb.Set(ctx, key, data, ttl).Err(); err != nil {
			slog.Warn("cache write failed", "key", key, "error", err)
		}
	}

	return fresh, nil
}

// Invalidate removes a cached entry. Best-effort.
func Invalidate(ctx context.Context, rdb *redis.Client, key string) {
	if err := rdb.Del(ctx, key).Err(); err != nil {
		slog.Warn("cache invalidate failed", "key", key, "error", err)
	}
}
