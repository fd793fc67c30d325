package shortener

import "errors"

var (
	// ErrInvalidURL is returned when a destination is not an absolute URL.
	ErrInvalidURL = errors.New("malformed url")
	// ErrDatabase is returned for any datastore failure. The cause is logged where it happens.
	ErrDatabase = errors.New("could not access database")
	// ErrHashConflict is returned by Insert when the generated hash is already taken.
	ErrHashConflict = errors.New("hash already exists")
	// ErrNotFound signals that no link matches a hash.
	ErrNotFound = errors.New("link not found")
)
