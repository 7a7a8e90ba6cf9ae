package analytics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/student-dashboard/internal/logger"
	"github.com/sakif/student-dashboard/internal/model"
)

func TestRedisKey(t *testing.T) {
	k := redisKey("codeforces=bob&leetcode=alice")

	assert.True(t, strings.HasPrefix(k, redisKeyPrefix))
	assert.Len(t, k, len(redisKeyPrefix)+32)
	assert.Equal(t, k, redisKey("codeforces=bob&leetcode=alice"))
	assert.NotEqual(t, k, redisKey("leetcode=alice"))
}

func TestRedisCache_UnreachableDegradesToMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisCache(client, logger.Discard())
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.Set(ctx, "k", &model.CombinedAnalytics{}, time.Minute)
		c.Delete(ctx, "k")
	})
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, c.Ping(ctx))
}
