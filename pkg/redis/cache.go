package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oakline/storefront/pkg/models"
)

const productCacheTTL = 24 * time.Hour

// CacheProduct stores a product under its id and maintains per-category
// lists for quick browsing.
func CacheProduct(ctx context.Context, product *models.Product) error {
	client := RedisClient()
	defer client.Close()

	productJSON, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product %s: %w", product.ID.Hex(), err)
	}

	pipe := client.TxPipeline()

	productKey := fmt.Sprintf("product:%s", product.ID.Hex())
	pipe.Set(ctx, productKey, productJSON, productCacheTTL)

	for _, category := range product.Categories {
		categoryKey := fmt.Sprintf("category:%s", category)
		pipe.LPush(ctx, categoryKey, product.ID.Hex())
		pipe.Expire(ctx, categoryKey, productCacheTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for product %s: %w", product.ID.Hex(), err)
	}
	return nil
}

func GetProductFromCache(ctx context.Context, id string) (*models.Product, error) {
	client := RedisClient()
	defer client.Close()

	productJSON, err := client.Get(ctx, fmt.Sprintf("product:%s", id)).Result()
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal([]byte(productJSON), &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	return &product, nil
}

// RemoveProductFromCache drops a product and its category list entries.
// Called after catalog writes so stale prices never reach checkout reads.
func RemoveProductFromCache(ctx context.Context, product *models.Product) error {
	client := RedisClient()
	defer client.Close()

	pipe := client.TxPipeline()
	pipe.Del(ctx, fmt.Sprintf("product:%s", product.ID.Hex()))
	for _, category := range product.Categories {
		pipe.LRem(ctx, fmt.Sprintf("category:%s", category), 0, product.ID.Hex())
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove product from Redis cache: %w", err)
	}
	return nil
}
