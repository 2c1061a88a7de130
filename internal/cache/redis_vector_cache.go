package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

const defaultVectorTTL = 24 * time.Hour

// RedisVectorCache keeps corpus vectors in Redis so documents re-uploaded or
// reloaded after a restart are not embedded again.
type RedisVectorCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisVectorCache(client *redisv9.Client, ttl time.Duration) *RedisVectorCache {
	if ttl <= 0 {
		ttl = defaultVectorTTL
	}
	return &RedisVectorCache{client: client, ttl: ttl}
}

func (c *RedisVectorCache) GetVectors(ctx context.Context, key string) ([][]float32, bool, error) {
	raw, err := c.client.Get(ctx, c.vectorKey(key)).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get vectors failed: %w", err)
	}

	var vectors [][]float32
	if err := json.Unmarshal(raw, &vectors); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached vectors failed: %w", err)
	}
	return vectors, true, nil
}

func (c *RedisVectorCache) SetVectors(ctx context.Context, key string, vectors [][]float32) error {
	payload, err := json.Marshal(vectors)
	if err != nil {
		return fmt.Errorf("marshal vectors failed: %w", err)
	}
	if err := c.client.Set(ctx, c.vectorKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set vectors failed: %w", err)
	}
	return nil
}

func (c *RedisVectorCache) vectorKey(key string) string {
	return "docqa:vectors:" + key
}
