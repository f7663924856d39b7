package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lead-intake/internal/bucketing"
	"lead-intake/internal/client"
	"lead-intake/internal/util"
)

const rateLimitPrefix = "lead_rate_limit:"

// Sliding log in a sorted set scored by milliseconds. Attempts with
// now - t >= window are trimmed; a rejected attempt is not stored.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

	local count = redis.call('ZCARD', key)
	if count >= limit then
		return {0, count}
	end

	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, count + 1}
`)

// RateLimitCache shares the per-client sliding window across instances
type RateLimitCache struct {
	client  *client.RedisClient
	buckets *bucketing.BucketingManager
	window  time.Duration
	limit   int
}

func NewRateLimitCache(client *client.RedisClient, buckets *bucketing.BucketingManager, window time.Duration, limit int) *RateLimitCache {
	return &RateLimitCache{
		client:  client,
		buckets: buckets,
		window:  window,
		limit:   limit,
	}
}

func (c *RateLimitCache) Record(ctx context.Context, identifier string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	key := c.key(identifier)
	nowMs := now.UnixMilli()
	member := strconv.FormatInt(nowMs, 10) + ":" + uuid.NewString()

	result, err := c.client.RunScript(ctx, slidingWindowScript, []string{key},
		nowMs, c.window.Milliseconds(), c.limit, member)
	if err != nil {
		util.Error("Failed to execute sliding window rate limit",
			zap.String("key", key),
			zap.Int("limit", c.limit),
			zap.Duration("window", c.window),
			zap.Error(err))
		return false, fmt.Errorf("failed to execute sliding window rate limit: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, fmt.Errorf("unexpected result format from sliding window script: %T", result)
	}
	allowed, ok1 := values[0].(int64)
	count, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return false, fmt.Errorf("unexpected result types from sliding window script")
	}

	util.Debug("Sliding window rate limit check",
		zap.String("key", key),
		zap.Bool("allowed", allowed == 1),
		zap.Int64("count", count),
		zap.Int("limit", c.limit))

	return allowed == 1, nil
}

// Count returns the attempts currently stored for identifier (expired ones may linger until the next Record)
func (c *RateLimitCache) Count(ctx context.Context, identifier string) (int64, error) {
	return c.client.ZCard(ctx, c.key(identifier))
}

// Reset forgets every attempt for identifier
func (c *RateLimitCache) Reset(ctx context.Context, identifier string) error {
	if err := c.client.Del(ctx, c.key(identifier)); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

func (c *RateLimitCache) HealthCheck(ctx context.Context) error {
	return c.client.HealthCheck(ctx)
}

func (c *RateLimitCache) key(identifier string) string {
	return c.buckets.Key(rateLimitPrefix, identifier)
}
