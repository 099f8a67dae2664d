package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// ProductCacheTTL bounds how stale catalog reads can be. Pricing inside the
// order workflow always reads the database, never this cache.
const ProductCacheTTL = 30 * time.Second

// ProductCache is a Redis-backed read cache for catalog lookups.
type ProductCache struct {
	client *redis.Client
	logger logger.Logger
}

// NewProductCache connects to Redis at addr.
func NewProductCache(addr string, logger logger.Logger) *ProductCache {
	return &ProductCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		logger: logger,
	}
}

// Get returns the cached product, or (nil, nil) on a miss.
func (c *ProductCache) Get(ctx context.Context, id string) (*models.Product, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var product models.Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}

	return &product, nil
}

// Set stores a product with the catalog TTL.
func (c *ProductCache) Set(ctx context.Context, product *models.Product) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	return c.client.Set(ctx, c.key(product.ID), raw, ProductCacheTTL).Err()
}

// Invalidate drops a product from the cache after a write.
func (c *ProductCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

// Close releases the Redis connection.
func (c *ProductCache) Close() error {
	return c.client.Close()
}

func (c *ProductCache) key(id string) string {
	return fmt.Sprintf("freshmart:product:%s", id)
}
