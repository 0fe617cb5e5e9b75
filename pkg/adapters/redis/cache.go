package redis

import (
	"context"
	"errors"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// Cache implements the artifact cache on plain SET/GET with per-key TTLs.
// Keys arrive already namespaced by the fingerprinting layer.
type Cache struct {
	client *backend.Client
}

// NewCacheFromClient creates a Cache over an existing client.
func NewCacheFromClient(client *backend.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}
