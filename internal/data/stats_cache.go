package data

import (
	"context"
	"encoding/json"
	"time"

	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

const statsCacheKeyPrefix = "stats:"

type statsCache struct {
	kv  kvStore
	log *log.Helper
}

// NewStatsCache returns the statistics cache over the configured key-value store.
func NewStatsCache(data *Data, logger log.Logger) domain.StatsCache {
	return &statsCache{
		kv:  data.kv,
		log: log.NewHelper(logger),
	}
}

func (c *statsCache) Get(ctx context.Context, key string) (*domain.ClickStats, error) {
	b, err := c.kv.Get(ctx, statsCacheKeyPrefix+key)
	if err != nil {
		return nil, err
	}
	var stats domain.ClickStats
	if err := json.Unmarshal(b, &stats); err != nil {
		c.log.WithContext(ctx).Warnf("discarding undecodable stats entry %s: %v", key, err)
		return nil, domain.ErrCacheMiss
	}
	return &stats, nil
}

func (c *statsCache) Set(ctx context.Context, key string, stats *domain.ClickStats, ttl time.Duration) error {
	b, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, statsCacheKeyPrefix+key, b, ttl)
}
