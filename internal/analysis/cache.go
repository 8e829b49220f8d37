package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gokatarajesh/assessment-engine/internal/assessment"
)

const defaultCacheTTL = 10 * time.Minute

// Cache stores analysis results by request key. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*assessment.Result, error)
	Set(ctx context.Context, key string, res assessment.Result) error
}

// RedisCache keeps results in Redis. Analysis is deterministic, so a result
// is valid for as long as the request it was computed from.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*assessment.Result, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var res assessment.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, res assessment.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// RequestKey derives a cache key from the canonical JSON encoding of req.
// variant separates results produced by differently configured engines.
func RequestKey(req assessment.Request, variant string) (string, error) {
	canonical, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return "analysis:" + variant + ":" + hex.EncodeToString(sum[:]), nil
}
