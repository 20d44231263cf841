package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

const defaultCacheTTL = 24 * time.Hour

// RedisCache keeps search results in Redis as JSON.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps client. ttl <= 0 uses 24h.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// Get returns the cached results for key. A miss is (nil, false, nil).
func (c *RedisCache) Get(ctx context.Context, key string) ([]types.WebResult, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var results []types.WebResult
	if err := json.Unmarshal(val, &results); err != nil {
		return nil, false, fmt.Errorf("decoding cached results: %w", err)
	}
	return results, true, nil
}

// Set stores results under key with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, results []types.WebResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
