package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supplysync/catalog_api/internal/models"
)

const statsKey = "catalog:review:stats"

// StatsCache caches review queue counts so the dashboard poll does not hit
// the aggregate query on every request.
type StatsCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewStatsCache creates a StatsCache with the given TTL.
func NewStatsCache(redis *RedisClient, ttl time.Duration) *StatsCache {
	return &StatsCache{redis: redis, ttl: ttl}
}

// Get returns the cached stats, or (nil, nil) on a cache miss.
func (c *StatsCache) Get(ctx context.Context) ([]models.ReviewQueueStat, error) {
	raw, err := c.redis.Get(ctx, statsKey)
	if err != nil {
		return nil, nil
	}

	var stats []models.ReviewQueueStat
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached stats: %w", err)
	}
	return stats, nil
}

// Set stores the stats snapshot.
func (c *StatsCache) Set(ctx context.Context, stats []models.ReviewQueueStat) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return c.redis.Set(ctx, statsKey, string(raw), c.ttl)
}

// Invalidate drops the cached snapshot, forcing a fresh aggregate on the
// next read.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	return c.redis.Delete(ctx, statsKey)
}
