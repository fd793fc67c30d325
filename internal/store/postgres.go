package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
// Every operation checks a connection out of the pool and returns it when done.
type PostgresStore struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
	queryTimeout   time.Duration
	logger         *zap.Logger
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool, acquireTimeout, queryTimeout time.Duration, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		pool:           pool,
		acquireTimeout: acquireTimeout,
		queryTimeout:   queryTimeout,
		logger:         logger,
	}
}

// withConn runs fn on a pooled connection. Acquisition honours ctx and the
// acquire timeout; the statement itself runs detached from ctx cancellation
// and is bounded by the query timeout only.
func (p *PostgresStore) withConn(ctx context.Context, fn func(ctx context.Context, db DBTX) error) error {
	acquireCtx, cancelAcquire := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancelAcquire()

	conn, err := p.pool.Acquire(acquireCtx)
	if err != nil {
		return err
	}
	defer conn.Release()

	queryCtx, cancelQuery := context.WithTimeout(context.WithoutCancel(ctx), p.queryTimeout)
	defer cancelQuery()

	return fn(queryCtx, conn)
}

func (p *PostgresStore) Insert(ctx context.Context, link *shortener.Link) (*shortener.Link, error) {
	var stored *shortener.Link

	err := p.withConn(ctx, func(ctx context.Context, db DBTX) error {
		var err error
		stored, err = InsertLink(ctx, db, link)

		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shortener.ErrHashConflict
		}

		p.log(ctx).Error("failed to insert link",
			zap.String("hash", string(link.Hash)),
			zap.Error(err),
		)

		return nil, shortener.ErrDatabase
	}

	return stored, nil
}

func (p *PostgresStore) GetByHash(ctx context.Context, hash shortener.Hash) (*shortener.Link, error) {
	var link *shortener.Link

	err := p.withConn(ctx, func(ctx context.Context, db DBTX) error {
		var err error
		link, err = GetLinkByHash(ctx, db, hash)

		return err
	})
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, shortener.ErrNotFound
		}

		p.log(ctx).Error("failed to get link",
			zap.String("hash", string(hash)),
			zap.Error(err),
		)

		return nil, shortener.ErrDatabase
	}

	return link, nil
}

func (p *PostgresStore) List(ctx context.Context) ([]shortener.Link, error) {
	var links []shortener.Link

	err := p.withConn(ctx, func(ctx context.Context, db DBTX) error {
		var err error
		links, err = ListLinks(ctx, db)

		return err
	})
	if err != nil {
		p.log(ctx).Error("failed to list links", zap.Error(err))

		return nil, shortener.ErrDatabase
	}

	return links, nil
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

func (p *PostgresStore) log(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, p.logger)
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
