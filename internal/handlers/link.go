package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// FallbackLocation is where unknown hashes are redirected.
const FallbackLocation = "/"

// LinkHandler serves the link operations.
type LinkHandler struct {
	service            *shortener.Service
	publishLinkCreated messaging.Publish[events.LinkCreated]
	now                func() time.Time
	logger             *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	service *shortener.Service,
	publishLinkCreated messaging.Publish[events.LinkCreated],
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service:            service,
		publishLinkCreated: publishLinkCreated,
		now:                time.Now,
		logger:             logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	link, err := h.service.Create(ctx, req.Body.Destination)
	if err != nil {
		if errors.Is(err, shortener.ErrInvalidURL) {
			return nil, huma.Error422UnprocessableEntity("could not create link", err)
		}

		return nil, huma.Error500InternalServerError("database error")
	}

	event := events.NewLinkCreated(link, h.now())
	if err := h.publishLinkCreated(ctx, event); err != nil {
		logging.FromContext(ctx, h.logger).Error("failed to publish link created event",
			zap.String("hash", event.Hash),
			zap.Error(err),
		)
	}

	return &CreateLinkResponse{Body: newLinkBody(link)}, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, _ *struct{}) (*ListLinksResponse, error) {
	links := h.service.List(ctx)

	resp := &ListLinksResponse{Body: make([]LinkBody, 0, len(links))}
	for i := range links {
		resp.Body = append(resp.Body, newLinkBody(&links[i]))
	}

	return resp, nil
}

// Redirect sends the client to the destination stored under the hash, or to
// FallbackLocation when there is none. Malformed hashes never reach the store.
func (h *LinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	resp := &RedirectResponse{
		Status:   http.StatusTemporaryRedirect,
		Location: FallbackLocation,
	}

	if !shortener.IsValidHash(req.Hash) {
		return resp, nil
	}

	link, err := h.service.Resolve(ctx, shortener.Hash(req.Hash))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return resp, nil
		}

		return nil, huma.Error500InternalServerError("database error")
	}

	resp.Location = link.Destination

	return resp, nil
}
