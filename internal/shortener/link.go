package shortener

import (
	"net/url"
	"strings"

	"github.com/eknkc/basex"
	"github.com/google/uuid"
)

const (
	// Alphabet is the base-62 alphabet hashes are drawn from.
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// HashLength is the number of characters kept from the encoded ID.
	HashLength = 5
)

var base62 = mustEncoding(Alphabet)

func mustEncoding(alphabet string) *basex.Encoding {
	enc, err := basex.NewEncoding(alphabet)
	if err != nil {
		panic(err)
	}

	return enc
}

// Hash is the short, public identifier of a Link.
type Hash string

// Link maps a short hash to a destination URL.
type Link struct {
	ID          uuid.UUID `json:"id"`
	Hash        Hash      `json:"hash"`
	Destination string    `json:"destination"`
}

// NewLink holds the fields a caller submits to create a Link.
type NewLink struct {
	Destination string `json:"destination"`
}

// Link validates the candidate destination and builds a Link from it.
func (n NewLink) Link() (*Link, error) {
	return New(n.Destination)
}

// New parses candidate as an absolute URL and builds a Link for it.
// The stored destination is the normalized form returned by NormalizeURL.
func New(candidate string) (*Link, error) {
	destination, err := NormalizeURL(candidate)
	if err != nil {
		return nil, err
	}

	return NewWithHash(destination), nil
}

// NewWithHash builds a Link with a fresh ID and the hash derived from it.
// Uniqueness of the hash is left to the repository.
func NewWithHash(destination string) *Link {
	id := uuid.New()

	return &Link{
		ID:          id,
		Hash:        HashFromID(id),
		Destination: destination,
	}
}

// HashFromID encodes the raw bytes of id in base 62 and keeps the first HashLength characters.
func HashFromID(id uuid.UUID) Hash {
	encoded := base62.Encode(id[:])
	if len(encoded) > HashLength {
		encoded = encoded[:HashLength]
	}

	return Hash(encoded)
}

// NormalizeURL parses raw and returns its canonical string form.
//   - scheme and a non-empty hostname are required
//   - percent escapes in path, query and fragment must be well formed
//   - scheme and host are lowercased
//   - an empty path becomes "/"
//
// Normalizing an already normalized URL returns it unchanged.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}

	if u.Scheme == "" || u.Hostname() == "" || u.Opaque != "" {
		return "", ErrInvalidURL
	}

	// url.Parse leaves the query undecoded; reject escapes that can never decode.
	if _, err := url.QueryUnescape(u.RawQuery); err != nil {
		return "", ErrInvalidURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Path == "" && u.RawPath == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// IsValidHash reports whether h has the length and alphabet of a generated hash.
func IsValidHash(h string) bool {
	if len(h) != HashLength {
		return false
	}

	for i := 0; i < len(h); i++ {
		if !strings.ContainsRune(Alphabet, rune(h[i])) {
			return false
		}
	}

	return true
}
