package dto

import (
	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
	"github.com/jsamuelsen/jsonapi-gateway/internal/jsonapi"
)

// ResourceQuery holds the query parameters of GET /api/v1/resources/*path.
type ResourceQuery struct {
	// Report adds decode statistics to the response.
	Report bool `form:"report"`
}

// DecodeRequest is the body of POST /api/v1/documents/decode.
type DecodeRequest struct {
	// Status is the HTTP status the body was received with.
	Status int `json:"status" validate:"required,min=100,max=599"`

	// Body is the raw response body. It need not be valid JSON.
	Body string `json:"body"`
}

// BatchRequest is the body of POST /api/v1/documents/batch.
type BatchRequest struct {
	Paths []string `json:"paths" validate:"required,min=1,dive,notempty,startswith=/"`
}

// DocumentResponse is a normalized document as returned by the gateway.
type DocumentResponse struct {
	Data   any             `json:"data"`
	Errors []any           `json:"errors"`
	Meta   map[string]any  `json:"meta"`
	Report *jsonapi.Report `json:"report,omitempty"`
}

// NewDocumentResponse converts a decoded document. report may be nil.
func NewDocumentResponse(doc *domain.Document, report *jsonapi.Report) *DocumentResponse {
	return &DocumentResponse{
		Data:   doc.Data,
		Errors: doc.Errors,
		Meta:   doc.Metadata,
		Report: report,
	}
}

// BatchItem is the result for one path of a batch.
type BatchItem struct {
	Path     string            `json:"path"`
	Status   int               `json:"status"`
	Document *DocumentResponse `json:"document,omitempty"`
	Error    *ErrorDetail      `json:"error,omitempty"`
}

// BatchResponse is the response of POST /api/v1/documents/batch.
type BatchResponse struct {
	Results   []BatchItem `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}
