package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the link routes.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/v1/link",
		Summary:       "Create link",
		Description:   "Stores a new short link for an absolute destination URL.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/v1/links",
		Summary:     "List links",
		Description: "Returns every link ordered by destination. A storage failure yields an empty list.",
		Tags:        []string{"Links"},
	}, h.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{hash}",
		Summary:     "Redirect to destination",
		Description: "Redirects to the destination stored under the hash, or to / when it is unknown.",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.Redirect)
}
