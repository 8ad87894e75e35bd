package api

import (
	"github.com/ruteri/image-copyright-registry/interfaces"
)

// RegisterRequest is the body of POST /api/images.
type RegisterRequest struct {
	ContentHash string `json:"content_hash"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RegisterResponse is returned by both registration routes. URL is set when
// the server stored the content itself.
type RegisterResponse struct {
	ID          uint64 `json:"id"`
	ContentHash string `json:"content_hash"`
	URL         string `json:"url,omitempty"`
}

// UpdateRequest is the body of PUT /api/images/{id}.
type UpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// VerifyResponse answers whether a content hash is registered and, if so, by whom.
type VerifyResponse struct {
	ContentHash string                  `json:"content_hash"`
	Registered  bool                    `json:"registered"`
	Record      *interfaces.ImageRecord `json:"record,omitempty"`
}

// HistoryResponse is a page of the durable notification log. NextAfter is
// the cursor to pass as ?after= for the following page.
type HistoryResponse struct {
	Events    []interfaces.RegistryEvent `json:"events"`
	NextAfter uint64                     `json:"next_after"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
