// Package ports defines the contracts between the application layer and its
// adapters. Ports speak in domain types; adapters own every transport detail.
package ports

import (
	"context"

	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
	"github.com/jsamuelsen/jsonapi-gateway/internal/jsonapi"
)

// DocumentClient retrieves JSON:API documents from an upstream service.
//
// Errors are domain errors: *domain.ResponseError for classified statuses,
// *domain.ParseError for malformed bodies and *domain.TransportError when no
// response was obtained.
type DocumentClient interface {
	// FetchDocument GETs path relative to the upstream's base URL and decodes it.
	FetchDocument(ctx context.Context, path string) (*domain.Document, jsonapi.Report, error)
}
