package jsonapi

import (
	"net/http"

	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
)

// ParseResponse turns an HTTP status and raw body into a normalized document.
//
// Statuses that classify to a protocol error kind return a *domain.ResponseError
// carrying the raw body without attempting to parse it. 204 No Content returns an
// empty document without touching the body. Every other status is parsed and decoded,
// so a 422 with a JSON:API errors array yields a document whose Errors are populated.
func ParseResponse(status int, body []byte) (*domain.Document, error) {
	doc, _, err := ParseResponseWithReport(status, body)
	return doc, err
}

// ParseResponseWithReport is ParseResponse that also returns the decode report.
func ParseResponseWithReport(status int, body []byte) (*domain.Document, Report, error) {
	if kind := domain.Classify(status); kind != domain.KindNone {
		return nil, Report{}, domain.NewResponseError(kind, status, body)
	}

	if status == http.StatusNoContent {
		return domain.EmptyDocument(), Report{}, nil
	}

	raw, err := ParseJSON(body)
	if err != nil {
		return nil, Report{}, err
	}

	return DecodeWithReport(raw)
}
