package store

import (
	"context"
	"errors"

	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// RedisCache wraps a Repository with a read-through LinkCache for lookups by hash.
type RedisCache struct {
	store  shortener.Repository
	cache  *LinkCache
	logger *zap.Logger
}

// NewRedisCache creates a new Redis-cached repository decorator.
func NewRedisCache(store shortener.Repository, cache *LinkCache, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Insert stores the link in the underlying repository. The cache is filled
// by the cache warmer or on first lookup.
func (r *RedisCache) Insert(ctx context.Context, link *shortener.Link) (*shortener.Link, error) {
	return r.store.Insert(ctx, link)
}

// GetByHash checks the cache first and falls back to the underlying repository.
// Cache failures are logged and never fail the lookup. Misses are not cached.
func (r *RedisCache) GetByHash(ctx context.Context, hash shortener.Hash) (*shortener.Link, error) {
	link, err := r.cache.Get(ctx, hash)
	if err == nil {
		return link, nil
	}

	if !errors.Is(err, ErrCacheMiss) {
		r.log(ctx).Warn("cache read failed", zap.String("hash", string(hash)), zap.Error(err))
	}

	link, err = r.store.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Warm(ctx, link); err != nil {
		r.log(ctx).Warn("cache write failed", zap.String("hash", string(hash)), zap.Error(err))
	}

	return link, nil
}

// List always reads from the underlying repository.
func (r *RedisCache) List(ctx context.Context) ([]shortener.Link, error) {
	return r.store.List(ctx)
}

func (r *RedisCache) log(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, r.logger)
}

// Compile-time check.
var _ shortener.Repository = (*RedisCache)(nil)
