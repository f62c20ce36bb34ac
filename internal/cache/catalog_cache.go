// Package cache holds read-side Redis decorators. Cache misses and Redis
// failures fall through to the underlying repository; correctness never
// depends on the cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ruthachere/e-commerce-shop/internal/repository"
)

type cachedCatalog struct {
	next        repository.CatalogRepository
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCachedCatalog(next repository.CatalogRepository, redisClient *redis.Client) repository.CatalogRepository {
	return &cachedCatalog{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    10 * time.Minute,
	}
}

func (c *cachedCatalog) VariantPricing(ctx context.Context, variantID int64) (*repository.ItemPricing, error) {
	return c.lookup(ctx, fmt.Sprintf("pricing:variant:%d", variantID), func() (*repository.ItemPricing, error) {
		return c.next.VariantPricing(ctx, variantID)
	})
}

func (c *cachedCatalog) ProductPricing(ctx context.Context, productID int64) (*repository.ItemPricing, error) {
	return c.lookup(ctx, fmt.Sprintf("pricing:product:%d", productID), func() (*repository.ItemPricing, error) {
		return c.next.ProductPricing(ctx, productID)
	})
}

func (c *cachedCatalog) lookup(ctx context.Context, key string, load func() (*repository.ItemPricing, error)) (*repository.ItemPricing, error) {
	val, err := c.redisClient.Get(ctx, key).Result()
	if err == nil {
		var pricing repository.ItemPricing
		if err := json.Unmarshal([]byte(val), &pricing); err == nil {
			return &pricing, nil
		}
	}

	pricing, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(pricing); err == nil {
		c.redisClient.Set(ctx, key, data, c.cacheTTL)
	}

	return pricing, nil
}
