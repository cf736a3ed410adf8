package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openpos/backend/internal/domain/inventory"
	"github.com/openpos/backend/internal/infrastructure/config"
)

// ErrCacheMiss is returned when no summary is cached for the tenant
var ErrCacheMiss = errors.New("cache miss")

// RedisLowStockCache caches the per-tenant low stock summary in Redis.
// The summary is the expensive full-table scan of the report; individual
// report pages always hit the database. Stock adjustments invalidate the
// tenant's entry, and a TTL bounds staleness regardless.
type RedisLowStockCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisLowStockCache creates a cache backed by a new Redis connection
func NewRedisLowStockCache(cfg config.RedisConfig, ttl time.Duration) (*RedisLowStockCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisLowStockCacheWithClient(client, ttl), nil
}

// NewRedisLowStockCacheWithClient creates a cache with an existing Redis client
func NewRedisLowStockCacheWithClient(client *redis.Client, ttl time.Duration) *RedisLowStockCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLowStockCache{
		client:    client,
		keyPrefix: "report:lowstock:summary:",
		ttl:       ttl,
	}
}

// GetSummary returns the cached summary for a tenant, or ErrCacheMiss
func (c *RedisLowStockCache) GetSummary(ctx context.Context, tenantID uuid.UUID) (*inventory.LowStockSummary, error) {
	data, err := c.client.Get(ctx, c.key(tenantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read low stock summary: %w", err)
	}

	var summary inventory.LowStockSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode low stock summary: %w", err)
	}
	return &summary, nil
}

// SetSummary stores the summary for a tenant with the configured TTL
func (c *RedisLowStockCache) SetSummary(ctx context.Context, tenantID uuid.UUID, summary *inventory.LowStockSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode low stock summary: %w", err)
	}
	if err := c.client.Set(ctx, c.key(tenantID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store low stock summary: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary for a tenant
func (c *RedisLowStockCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate low stock summary: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection
func (c *RedisLowStockCache) Close() error {
	return c.client.Close()
}

func (c *RedisLowStockCache) key(tenantID uuid.UUID) string {
	return c.keyPrefix + tenantID.String()
}
