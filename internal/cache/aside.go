package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"collegeconnect/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// GetJSON reads key into dest. It reports false on a miss or when Redis is unavailable.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with ttl.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside serves dest from Redis when present. On a miss, or any Redis failure,
// it calls fetch to fill dest and stores the result best-effort.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	if err == nil && found {
		middleware.CacheHits.WithLabelValues(keyFamily(key)).Inc()
		return nil
	}
	middleware.CacheMisses.WithLabelValues(keyFamily(key)).Inc()

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// keyFamily keeps metric label cardinality bounded: "user:12:stats" becomes "user:stats".
func keyFamily(key string) string {
	parts := strings.Split(key, ":")
	kept := parts[:0]
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 64); err == nil {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ":")
}
