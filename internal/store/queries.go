package store

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/serroba/shortlink/internal/shortener"
)

// DBTX is the subset of pgx shared by pooled connections, pools and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	insertLinkSQL = `
		INSERT INTO links (id, hash, destination)
		VALUES ($1, $2, $3)
		RETURNING id, hash, destination
	`

	getLinkByHashSQL = `
		SELECT id, hash, destination
		FROM links
		WHERE hash = $1
	`

	listLinksSQL = `
		SELECT id, hash, destination
		FROM links
		ORDER BY destination COLLATE "C"
	`
)

// InsertLink writes link and returns the row echoed back by the database.
// Driver errors are returned unchanged.
func InsertLink(ctx context.Context, db DBTX, link *shortener.Link) (*shortener.Link, error) {
	var stored shortener.Link

	err := db.QueryRow(ctx, insertLinkSQL,
		link.ID,
		string(link.Hash),
		link.Destination,
	).Scan(&stored.ID, &stored.Hash, &stored.Destination)
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

// GetLinkByHash returns the link with the given hash or shortener.ErrNotFound.
func GetLinkByHash(ctx context.Context, db DBTX, hash shortener.Hash) (*shortener.Link, error) {
	var link shortener.Link

	err := db.QueryRow(ctx, getLinkByHashSQL, string(hash)).
		Scan(&link.ID, &link.Hash, &link.Destination)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return &link, nil
}

// ListLinks returns every link ordered by the bytes of destination,
// independent of the database's default collation.
func ListLinks(ctx context.Context, db DBTX) ([]shortener.Link, error) {
	rows, err := db.Query(ctx, listLinksSQL)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (shortener.Link, error) {
		var link shortener.Link

		err := row.Scan(&link.ID, &link.Hash, &link.Destination)

		return link, err
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
