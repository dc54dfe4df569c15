package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Kariqs/megano-api/models"
	"github.com/redis/go-redis/v9"
)

const (
	notFoundMarker = "notfound"
	notFoundTTL    = time.Minute
)

// ProductCache is a read-through cache of product pages. Misses are cached too, briefly.
// Redis failures fall back to the loader.
type ProductCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{redis: client, ttl: ttl}
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *ProductCache) Get(ctx context.Context, id uint, load func(context.Context, uint) (*models.ProductFull, error)) (*models.ProductFull, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		var product models.ProductFull
		if err := json.Unmarshal(data, &product); err != nil {
			log.Printf("Failed to unmarshal cached product (continuing with DB): %v", err)
			break
		}
		return &product, nil
	case errors.Is(err, redis.Nil):
	default:
		log.Printf("Redis error (continuing with DB): %v", err)
	}

	product, err := load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, notFoundTTL).Err(); setErr != nil {
				log.Printf("Failed to cache notfound: %v", setErr)
			}
		}
		return nil, err
	}

	encoded, err := json.Marshal(product)
	if err != nil {
		log.Printf("Failed to marshal product: %v", err)
		return product, nil
	}
	if err := c.redis.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		log.Printf("Failed to cache product: %v", err)
	}
	return product, nil
}

func (c *ProductCache) Invalidate(ctx context.Context, id uint) {
	if err := c.redis.Del(ctx, productKey(id)).Err(); err != nil {
		log.Printf("Failed to delete product cache %s: %v", productKey(id), err)
	}
}
