package shortener

import "context"

// Repository defines the storage operations for links.
type Repository interface {
	// Insert stores a new link and returns the row as stored.
	Insert(ctx context.Context, link *Link) (*Link, error)

	// GetByHash returns the link with the given hash, or ErrNotFound.
	GetByHash(ctx context.Context, hash Hash) (*Link, error)

	// List returns every link ordered by destination.
	List(ctx context.Context) ([]Link, error)
}
