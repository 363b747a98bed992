package data

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTemplateCache caches template bytes in Redis so the dispatch worker
// does not re-read the same template row for every letter in a shipment.
// A cache miss or Redis outage falls back to the database; the cache never
// holds recipient data, only template files.
type RedisTemplateCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisTemplateCache creates a RedisTemplateCache with the given TTL.
func NewRedisTemplateCache(client redis.UniversalClient, ttl time.Duration) *RedisTemplateCache {
	return &RedisTemplateCache{client: client, ttl: ttl}
}

func templateCacheKey(id int64) string {
	return "postbud:template:" + strconv.FormatInt(id, 10)
}

// Get returns cached template bytes, or nil when the key is absent.
func (c *RedisTemplateCache) Get(ctx context.Context, id int64) ([]byte, error) {
	result, err := c.client.Get(ctx, templateCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("template cache get: %w", err)
	}
	return result, nil
}

// Set stores template bytes under the configured TTL.
func (c *RedisTemplateCache) Set(ctx context.Context, id int64, data []byte) error {
	if err := c.client.Set(ctx, templateCacheKey(id), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("template cache set: %w", err)
	}
	return nil
}
