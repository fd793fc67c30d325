package shortener

import (
	"context"
	"errors"

	"github.com/serroba/shortlink/internal/logging"
	"go.uber.org/zap"
)

// DefaultMaxHashAttempts is how many hashes Create tries before giving up.
const DefaultMaxHashAttempts = 3

// LinkFactory builds a Link for an already normalized destination.
type LinkFactory func(destination string) *Link

// Service creates, resolves and lists links.
type Service struct {
	store       Repository
	newLink     LinkFactory
	maxAttempts int
	logger      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLinkFactory replaces the function used to build links.
func WithLinkFactory(factory LinkFactory) Option {
	return func(s *Service) {
		s.newLink = factory
	}
}

// WithMaxHashAttempts sets how many hashes are tried when inserts conflict.
func WithMaxHashAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewService creates a new link service on top of store.
func NewService(store Repository, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		newLink:     NewWithHash,
		maxAttempts: DefaultMaxHashAttempts,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create validates candidate and stores a new link for it.
// A hash conflict is retried with a fresh ID up to the configured attempts.
func (s *Service) Create(ctx context.Context, candidate string) (*Link, error) {
	destination, err := NormalizeURL(candidate)
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx, s.logger)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		link := s.newLink(destination)

		stored, err := s.store.Insert(ctx, link)
		if err == nil {
			return stored, nil
		}

		if !errors.Is(err, ErrHashConflict) {
			return nil, err
		}

		logger.Warn("hash conflict, regenerating",
			zap.String("hash", string(link.Hash)),
			zap.Int("attempt", attempt),
		)
	}

	logger.Error("hash attempts exhausted",
		zap.String("destination", destination),
		zap.Int("attempts", s.maxAttempts),
	)

	return nil, ErrDatabase
}

// Resolve returns the link stored under hash.
func (s *Service) Resolve(ctx context.Context, hash Hash) (*Link, error) {
	return s.store.GetByHash(ctx, hash)
}

// List returns every link ordered by destination.
// A storage failure is logged and yields an empty list.
func (s *Service) List(ctx context.Context) []Link {
	links, err := s.store.List(ctx)
	if err != nil {
		logging.FromContext(ctx, s.logger).Error("failed to list links", zap.Error(err))

		return []Link{}
	}

	if links == nil {
		return []Link{}
	}

	return links
}
