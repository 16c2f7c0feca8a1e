package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ecommapi/internal/models"
)

func productKey(productID uint) string {
	return fmt.Sprintf("product:%d", productID)
}

// GetProduct 读取商品详情缓存
func GetProduct(ctx context.Context, productID uint) (*models.Product, bool, error) {
	var product models.Product
	hit, err := GetJSON(ctx, productKey(productID), &product)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &product, true, nil
}

// SetProduct 写入商品详情缓存
func SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	if product == nil || product.ID == 0 || ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, productKey(product.ID), product, ttl)
}

// DelProduct 删除商品详情缓存
func DelProduct(ctx context.Context, productIDs ...uint) error {
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}
	return Del(ctx, keys...)
}
