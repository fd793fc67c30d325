package handlers

import "github.com/serroba/shortlink/internal/shortener"

// LinkBody is the JSON form of a stored link.
type LinkBody struct {
	ID          string `doc:"Link ID"                    format:"uuid"                                 json:"id"`
	Hash        string `doc:"Short hash used in the URL" example:"aB3xZ"                               json:"hash"`
	Destination string `doc:"Normalized destination URL" example:"https://example.com/very/long/path" json:"destination"`
}

func newLinkBody(link *shortener.Link) LinkBody {
	return LinkBody{
		ID:          link.ID.String(),
		Hash:        string(link.Hash),
		Destination: link.Destination,
	}
}

// CreateLinkRequest is the request body for creating a link.
type CreateLinkRequest struct {
	Body struct {
		Destination string `doc:"Absolute URL to shorten" example:"https://example.com/very/long/path" json:"destination"`
	}
}

// CreateLinkResponse is returned for a created link.
type CreateLinkResponse struct {
	Body LinkBody
}

// ListLinksResponse is every stored link ordered by destination.
type ListLinksResponse struct {
	Body []LinkBody
}

// RedirectRequest is the request for resolving a hash.
type RedirectRequest struct {
	Hash string `doc:"Short hash" example:"aB3xZ" path:"hash"`
}

// RedirectResponse is a redirect to the resolved destination.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}
