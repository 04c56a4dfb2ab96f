package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

const linkCacheKeyPrefix = "link:"

type linkCache struct {
	kv  kvStore
	log *log.Helper
}

// NewLinkCache returns the redirect cache over the configured key-value store.
func NewLinkCache(data *Data, logger log.Logger) domain.LinkCache {
	return &linkCache{
		kv:  data.kv,
		log: log.NewHelper(logger),
	}
}

func linkCacheKey(code string) string {
	return linkCacheKeyPrefix + code
}

func (c *linkCache) Get(ctx context.Context, code string) (*domain.CacheEntry, error) {
	b, err := c.kv.Get(ctx, linkCacheKey(code))
	if err != nil {
		return nil, err
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		// A corrupt entry is treated as absent; the next fill overwrites it.
		c.log.WithContext(ctx).Warnf("discarding undecodable cache entry for %s: %v", code, err)
		return nil, domain.ErrCacheMiss
	}
	entry.ShortCode = code
	return &entry, nil
}

func (c *linkCache) Set(ctx context.Context, entry *domain.CacheEntry, ttl time.Duration) error {
	if entry == nil || entry.ShortCode == "" {
		return errors.New("cache entry without short code")
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, linkCacheKey(entry.ShortCode), b, ttl)
}

func (c *linkCache) Invalidate(ctx context.Context, code string) error {
	return c.kv.Del(ctx, linkCacheKey(code))
}
