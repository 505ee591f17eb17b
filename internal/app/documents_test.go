package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
	"github.com/jsamuelsen/jsonapi-gateway/internal/jsonapi"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/metrics"
)

// mockDocumentClient is a testify mock of ports.DocumentClient.
type mockDocumentClient struct {
	mock.Mock
}

func (m *mockDocumentClient) FetchDocument(ctx context.Context, path string) (*domain.Document, jsonapi.Report, error) {
	args := m.Called(ctx, path)

	doc, _ := args.Get(0).(*domain.Document)

	return doc, args.Get(1).(jsonapi.Report), args.Error(2)
}

// captureLogger returns a debug-level JSON logger writing into buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newMetrics(t *testing.T) *metrics.Decoder {
	t.Helper()

	m, err := metrics.NewDecoder(prometheus.NewRegistry())
	require.NoError(t, err)

	return m
}

func TestDocumentService_FetchDocument(t *testing.T) {
	doc := &domain.Document{Data: map[string]any{"id": "1"}, Errors: []any{}, Metadata: map[string]any{}}
	report := jsonapi.Report{Resources: 1, Merged: 1, Linkages: 2}

	client := &mockDocumentClient{}
	client.On("FetchDocument", mock.Anything, "/players/1").Return(doc, report, nil).Once()

	var buf bytes.Buffer
	svc := NewDocumentService(DocumentServiceConfig{
		Client:  client,
		Metrics: newMetrics(t),
		Logger:  captureLogger(&buf),
	})

	got, gotReport, err := svc.FetchDocument(context.Background(), "/players/1")
	require.NoError(t, err)
	assert.Same(t, doc, got)
	assert.Equal(t, report, gotReport)
	assert.Contains(t, buf.String(), `"msg":"document decoded"`)
	assert.Contains(t, buf.String(), `"path":"/players/1"`)

	client.AssertExpectations(t)
}

func TestDocumentService_FetchDocument_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
		check   func(error) bool
	}{
		{"not found", domain.NewResponseError(domain.KindNotFound, http.StatusNotFound, nil), "NotFound", domain.IsNotFound},
		{"parse", domain.NewParseError("<html>", ""), metrics.OutcomeParseError, domain.IsParse},
		{"transport", domain.NewTransportError("upstream", "refused"), metrics.OutcomeTransportError, domain.IsTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockDocumentClient{}
			client.On("FetchDocument", mock.Anything, "/x").Return(nil, jsonapi.Report{}, tt.err)

			var buf bytes.Buffer
			svc := NewDocumentService(DocumentServiceConfig{Client: client, Logger: captureLogger(&buf)})

			doc, _, err := svc.FetchDocument(context.Background(), "/x")
			assert.Nil(t, doc)
			assert.True(t, tt.check(err))
			assert.Equal(t, tt.outcome, Outcome(err))
			assert.Contains(t, buf.String(), `"outcome":"`+tt.outcome+`"`)
		})
	}
}

func TestDocumentService_FetchDocument_NoClient(t *testing.T) {
	svc := NewDocumentService(DocumentServiceConfig{})

	_, _, err := svc.FetchDocument(context.Background(), "/players")
	require.ErrorIs(t, err, ErrNoUpstream)

	_, err = svc.FetchDocuments(context.Background(), []string{"/players"})
	require.ErrorIs(t, err, ErrNoUpstream)
}

func TestDocumentService_DecodeDocument(t *testing.T) {
	body := []byte(`{
		"data":{"type":"players","id":"1","attributes":{"name":"Roger"},
		        "relationships":{"coach":{"data":{"type":"coaches","id":"9"}}}}
	}`)

	t.Run("warns when unresolved ratio reaches threshold", func(t *testing.T) {
		var buf bytes.Buffer
		svc := NewDocumentService(DocumentServiceConfig{UnresolvedWarnRatio: 0.5, Logger: captureLogger(&buf)})

		doc, report, err := svc.DecodeDocument(context.Background(), http.StatusOK, body)
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, 1, report.Unresolved)
		assert.Contains(t, buf.String(), `"level":"WARN"`)
		assert.Contains(t, buf.String(), "unresolved relationship linkages")
	})

	t.Run("stays at debug when everything resolves", func(t *testing.T) {
		var buf bytes.Buffer
		svc := NewDocumentService(DocumentServiceConfig{Logger: captureLogger(&buf)})

		_, report, err := svc.DecodeDocument(context.Background(), http.StatusOK,
			[]byte(`{"data":{"type":"players","id":"1","attributes":{}}}`))
		require.NoError(t, err)
		assert.Zero(t, report.Unresolved)
		assert.NotContains(t, buf.String(), `"level":"WARN"`)
	})

	t.Run("classified status", func(t *testing.T) {
		svc := NewDocumentService(DocumentServiceConfig{Logger: captureLogger(&bytes.Buffer{})})

		_, _, err := svc.DecodeDocument(context.Background(), http.StatusUnauthorized, body)
		assert.True(t, domain.IsUnauthorized(err))
	})
}

func TestDocumentService_FetchDocuments(t *testing.T) {
	ok := &domain.Document{Data: map[string]any{}, Errors: []any{}, Metadata: map[string]any{}}
	notFound := domain.NewResponseError(domain.KindNotFound, http.StatusNotFound, nil)

	client := &mockDocumentClient{}
	client.On("FetchDocument", mock.Anything, "/players").Return(ok, jsonapi.Report{Resources: 2}, nil).Once()
	client.On("FetchDocument", mock.Anything, "/missing").Return(nil, jsonapi.Report{}, notFound).Once()

	svc := NewDocumentService(DocumentServiceConfig{
		Client:           client,
		BatchConcurrency: 2,
		Logger:           captureLogger(&bytes.Buffer{}),
	})

	results, err := svc.FetchDocuments(context.Background(), []string{"/players", "/missing", "/players"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "/players", results[0].Path)
	require.NoError(t, results[0].Err)
	assert.Same(t, ok, results[0].Document)
	assert.Equal(t, 2, results[0].Report.Resources)

	assert.Equal(t, "/missing", results[1].Path)
	assert.True(t, domain.IsNotFound(results[1].Err))
	assert.Nil(t, results[1].Document)

	assert.Same(t, ok, results[2].Document)

	client.AssertExpectations(t)
}

func TestDocumentService_FetchDocuments_TooLarge(t *testing.T) {
	svc := NewDocumentService(DocumentServiceConfig{Client: &mockDocumentClient{}, BatchLimit: 2})

	_, err := svc.FetchDocuments(context.Background(), []string{"/a", "/b", "/c"})

	var tooLarge *BatchTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, 3, tooLarge.Requested)
	assert.Equal(t, 2, tooLarge.Limit)
	assert.Equal(t, "batch of 3 paths exceeds the limit of 2", err.Error())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, Outcome(nil))
	assert.Equal(t, "ServerError", Outcome(domain.NewResponseError(domain.KindServerError, 500, nil)))
	assert.Equal(t, "error", Outcome(errors.New("other")))
}
