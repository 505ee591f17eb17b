package jsonapi

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
)

func mustNumber(s string) json.Number {
	return json.Number(s)
}

func TestParseResponse_ClassifiedStatuses(t *testing.T) {
	tests := []struct {
		status   int
		kind     domain.ErrorKind
		sentinel error
	}{
		{status: http.StatusUnauthorized, kind: domain.KindUnauthorized, sentinel: domain.ErrUnauthorized},
		{status: http.StatusForbidden, kind: domain.KindForbidden, sentinel: domain.ErrForbidden},
		{status: http.StatusNotFound, kind: domain.KindNotFound, sentinel: domain.ErrNotFound},
		{status: http.StatusInternalServerError, kind: domain.KindServerError, sentinel: domain.ErrServerError},
		{status: http.StatusBadGateway, kind: domain.KindBadGateway, sentinel: domain.ErrBadGateway},
		{status: http.StatusServiceUnavailable, kind: domain.KindUnavailable, sentinel: domain.ErrUnavailable},
		{status: http.StatusGatewayTimeout, kind: domain.KindTimeOut, sentinel: domain.ErrTimeOut},
	}

	// The body is never parsed for these statuses, so invalid JSON must not matter.
	body := []byte("<html>upstream error</html>")

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			doc, err := ParseResponse(tt.status, body)

			require.Error(t, err)
			assert.Nil(t, doc)
			require.ErrorIs(t, err, tt.sentinel)
			assert.False(t, domain.IsParse(err))

			var respErr *domain.ResponseError
			require.ErrorAs(t, err, &respErr)
			assert.Equal(t, tt.kind, respErr.Kind)
			assert.Equal(t, tt.status, respErr.Status)
			assert.Equal(t, body, respErr.Body)
		})
	}
}

func TestParseResponse_NoContent(t *testing.T) {
	for _, body := range [][]byte{nil, []byte(""), []byte("not json {")} {
		doc, err := ParseResponse(http.StatusNoContent, body)

		require.NoError(t, err)
		assert.Equal(t, domain.EmptyDocument(), doc)
	}
}

func TestParseResponse_Success(t *testing.T) {
	doc, report, err := ParseResponseWithReport(http.StatusOK, []byte(sponsorsDocument))

	require.NoError(t, err)
	assert.True(t, doc.IsCollection())
	assert.Equal(t, 2, report.Resources)
	assert.Equal(t, 4, report.Linkages)
	assert.Zero(t, report.Unresolved)
}

func TestParseResponse_UnclassifiedErrorStatusIsDecoded(t *testing.T) {
	body := []byte(`{"errors":[{"status":"422","detail":"name is required"}]}`)

	doc, err := ParseResponse(http.StatusUnprocessableEntity, body)

	require.NoError(t, err)
	require.Len(t, doc.Errors, 1)
	assert.Equal(t, "name is required", doc.Errors[0].(map[string]any)["detail"])
	assert.Equal(t, map[string]any{}, doc.Data)
}

func TestParseResponse_BlankSuccessBody(t *testing.T) {
	doc, err := ParseResponse(http.StatusOK, []byte("  "))

	require.NoError(t, err)
	assert.Equal(t, domain.EmptyDocument(), doc)
}

func TestParseResponse_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "not json {"},
		{name: "top-level array", body: "[1,2,3]"},
		{name: "top-level scalar", body: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseResponse(http.StatusOK, []byte(tt.body))

			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, domain.IsParse(err))
			assert.False(t, domain.IsProtocol(err))
			assert.Contains(t, err.Error(), tt.body)
		})
	}
}
