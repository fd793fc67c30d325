// Package events defines the messages published when links change and the
// handlers that react to them.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/shortener"
)

// TopicLinkCreated is the stream a LinkCreated is published on.
const TopicLinkCreated = "link.created"

// LinkCreated is emitted after a link has been stored.
type LinkCreated struct {
	ID          uuid.UUID `json:"id"`
	Hash        string    `json:"hash"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewLinkCreated builds the event for a stored link.
func NewLinkCreated(link *shortener.Link, createdAt time.Time) *LinkCreated {
	return &LinkCreated{
		ID:          link.ID,
		Hash:        string(link.Hash),
		Destination: link.Destination,
		CreatedAt:   createdAt.UTC(),
	}
}

// Link returns the link described by the event.
func (e *LinkCreated) Link() *shortener.Link {
	return &shortener.Link{
		ID:          e.ID,
		Hash:        shortener.Hash(e.Hash),
		Destination: e.Destination,
	}
}
