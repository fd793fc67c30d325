package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

const linkKeyPrefix = "link:"

// ErrCacheMiss is returned by LinkCache.Get when the hash is not cached.
var ErrCacheMiss = errors.New("cache miss")

// LinkCache stores links in Redis hashes keyed by "link:<hash>".
// Links are immutable, so entries are never invalidated; they only expire.
type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLinkCache creates a cache whose entries live for ttl. A zero ttl keeps them forever.
func NewLinkCache(client *redis.Client, ttl time.Duration) *LinkCache {
	return &LinkCache{client: client, ttl: ttl}
}

// Get returns the cached link or ErrCacheMiss.
func (c *LinkCache) Get(ctx context.Context, hash shortener.Hash) (*shortener.Link, error) {
	result, err := c.client.HGetAll(ctx, linkKeyPrefix+string(hash)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	id, err := uuid.Parse(result["id"])
	if err != nil {
		return nil, err
	}

	return &shortener.Link{
		ID:          id,
		Hash:        shortener.Hash(result["hash"]),
		Destination: result["destination"],
	}, nil
}

// Warm writes link into the cache.
func (c *LinkCache) Warm(ctx context.Context, link *shortener.Link) error {
	key := linkKeyPrefix + string(link.Hash)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"id":          link.ID.String(),
		"hash":        string(link.Hash),
		"destination": link.Destination,
	})

	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}

	_, err := pipe.Exec(ctx)

	return err
}

// Ping checks Redis connectivity.
func (c *LinkCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
