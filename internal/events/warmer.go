package events

import (
	"context"
	"fmt"

	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// Warmer primes a cache with a link.
type Warmer interface {
	Warm(ctx context.Context, link *shortener.Link) error
}

// NewCacheWarmer returns a handler that writes every created link into the cache.
// Events with an invalid hash are dropped without error so they are not redelivered.
func NewCacheWarmer(warmer Warmer, logger *zap.Logger) messaging.Handler[LinkCreated] {
	return func(ctx context.Context, event *LinkCreated) error {
		logger := logging.FromContext(ctx, logger)

		if !shortener.IsValidHash(event.Hash) {
			logger.Warn("dropping link.created with invalid hash", zap.String("hash", event.Hash))

			return nil
		}

		if err := warmer.Warm(ctx, event.Link()); err != nil {
			return fmt.Errorf("warm %s: %w", event.Hash, err)
		}

		logger.Debug("cache warmed", zap.String("hash", event.Hash))

		return nil
	}
}
