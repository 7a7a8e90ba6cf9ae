package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/student-dashboard/internal/model"
)

// compile-time check that *RedisCache satisfies Cache
var _ Cache = (*RedisCache)(nil)

const redisKeyPrefix = "analytics:"

// RedisCache stores results as JSON so several server instances share them.
// Keys are hashed because handle-set keys carry user input.
type RedisCache struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisCache(client redis.UniversalClient, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger.With(slog.String("component", "redis-cache")),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*model.CombinedAnalytics, bool) {
	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Error("cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}

	var value model.CombinedAnalytics
	if err := json.Unmarshal(data, &value); err != nil {
		c.logger.Error("cache unmarshal failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	return &value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value *model.CombinedAnalytics, ttl time.Duration) {
	if ttl <= 0 || value == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache marshal failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, redisKey(key), data, ttl).Err(); err != nil {
		c.logger.Error("cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, redisKey(key)).Err(); err != nil {
		c.logger.Error("cache delete failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Ping reports whether Redis is reachable, for the readiness check.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s%x", redisKeyPrefix, sum[:16])
}
