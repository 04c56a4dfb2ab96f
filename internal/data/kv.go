package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-shortlink/internal/domain"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// kvStore is the volatile byte store behind the link and stats caches.
// Get returns domain.ErrCacheMiss for absent keys; every other failure wraps
// domain.ErrCacheUnavailable.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisKV struct {
	rdb *redis.Client
}

func (s *redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	return b, nil
}

func (s *redisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func (s *redisKV) Del(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// memoryKV keeps entries in process. Used for single-instance deployments
// and tests.
type memoryKV struct {
	c *gocache.Cache
}

func newMemoryKV() *memoryKV {
	return &memoryKV{c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (s *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v.([]byte), nil
}

func (s *memoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.c.Set(key, value, ttl)
	return nil
}

func (s *memoryKV) Del(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}

// noopKV disables caching: every read misses.
type noopKV struct{}

func (noopKV) Get(context.Context, string) ([]byte, error) {
	return nil, domain.ErrCacheMiss
}

func (noopKV) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (noopKV) Del(context.Context, string) error {
	return nil
}
