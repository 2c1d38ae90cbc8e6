package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheClient exposes the minimal redis subset used by the product cache.
type CacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

const productListKeyPrefix = "products:list:"

// ProductCache holds public listing results keyed by filter. Misses and redis
// failures degrade to the database; catalog mutations invalidate every key.
type ProductCache struct {
	client CacheClient
	ttl    time.Duration
}

func NewProductCache(client CacheClient, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

// listKey length-prefixes each field so filter values containing the
// separator cannot collide with a different filter.
func listKey(filter ProductFilter) string {
	return fmt.Sprintf("%s%d:%s|%d:%s", productListKeyPrefix, len(filter.Category), filter.Category, len(filter.Search), filter.Search)
}

// GetList returns the cached listing for filter, or ok=false on miss or error.
func (c *ProductCache) GetList(ctx context.Context, filter ProductFilter) ([]Product, bool) {
	val, err := c.client.Get(ctx, listKey(filter)).Result()
	if err != nil {
		return nil, false
	}
	var items []Product
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, false
	}
	return items, true
}

// SetList stores a listing result. Failures are ignored; the cache is best-effort.
func (c *ProductCache) SetList(ctx context.Context, filter ProductFilter, items []Product) {
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, listKey(filter), data, c.ttl).Err()
}

// Invalidate drops every cached listing. Called after any catalog mutation.
func (c *ProductCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, productListKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = c.client.Del(ctx, keys...).Err()
	}
}
