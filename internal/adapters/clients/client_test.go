package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/config"
)

func defaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "test-service",
		Timeout:     5 * time.Second,
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()

	client, err := New(cfg)
	require.NoError(t, err)

	return client
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")
}

func TestNew_RequiresServiceName(t *testing.T) {
	cfg := defaultConfig("")
	cfg.ServiceName = ""

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service name is required")
}

func TestNew_Defaults(t *testing.T) {
	client := newTestClient(t, &Config{ServiceName: "svc", BaseURL: "https://api.example.com/"})

	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.Equal(t, "svc", client.ServiceName())
	assert.Equal(t, defaultTimeout, client.http.Timeout)
	assert.Equal(t, int64(defaultMaxResponseSize), client.maxResponseSize)
	assert.Equal(t, StateClosed, client.CircuitState())
}

func TestClient_Get_ReturnsBodyAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/players/1", r.URL.Path)
		assert.Equal(t, MediaType, r.Header.Get("Accept"))

		w.Header().Set("Content-Type", MediaType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"type":"players","id":"1"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, defaultConfig(server.URL))

	resp, err := client.Get(context.Background(), "/players/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, MediaType, resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"type":"players","id":"1"}}`, string(resp.Body))
}

func TestClient_ErrorStatusesAreNotErrors(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte("<html>oops</html>"))
			}))
			defer server.Close()

			client := newTestClient(t, defaultConfig(server.URL))

			resp, err := client.Get(context.Background(), "/x")
			require.NoError(t, err)
			assert.Equal(t, status, resp.StatusCode)
			assert.Equal(t, "<html>oops</html>", string(resp.Body))
		})
	}
}

func TestClient_SingleAttempt(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, defaultConfig(server.URL))

	resp, err := client.Get(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_HeaderPropagation(t *testing.T) {
	var receivedRequestID, receivedCorrelationID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedRequestID = r.Header.Get(middleware.HeaderRequestID)
		receivedCorrelationID = r.Header.Get(middleware.HeaderCorrelationID)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, defaultConfig(server.URL))

	ctx := middleware.ContextWithRequestID(context.Background(), "req-123")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-456")

	_, err := client.Get(ctx, "/test")
	require.NoError(t, err)
	assert.Equal(t, "req-123", receivedRequestID)
	assert.Equal(t, "corr-456", receivedCorrelationID)
}

func TestClient_ResponseTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.MaxResponseSize = 32
	client := newTestClient(t, cfg)

	_, err := client.Get(context.Background(), "/")
	require.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestClient_ResponseAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 32)))
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.MaxResponseSize = 32
	client := newTestClient(t, cfg)

	resp, err := client.Get(context.Background(), "/")
	require.NoError(t, err)
	assert.Len(t, resp.Body, 32)
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t, defaultConfig(url))

	_, err := client.Get(context.Background(), "/")
	require.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.Timeout = 20 * time.Millisecond
	client := newTestClient(t, cfg)

	_, err := client.Get(context.Background(), "/slow")
	require.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_CircuitOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.Circuit.MaxFailures = 2
	cfg.Circuit.Timeout = time.Minute
	client := newTestClient(t, cfg)

	for range 2 {
		_, err := client.Get(context.Background(), "/")
		require.NoError(t, err)
	}

	assert.Equal(t, StateOpen, client.CircuitState())

	_, err := client.Get(context.Background(), "/")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorsDoNotTripCircuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.Circuit.MaxFailures = 1
	client := newTestClient(t, cfg)

	for range 3 {
		_, err := client.Get(context.Background(), "/")
		require.NoError(t, err)
	}

	assert.Equal(t, StateClosed, client.CircuitState())
}

func TestClient_CanceledContextDoesNotTripCircuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.Circuit.MaxFailures = 1
	client := newTestClient(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/")
	require.Error(t, err)
	assert.Equal(t, StateClosed, client.CircuitState())
}

func TestClient_CanceledInFlightKeepsFailureCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			<-r.Context().Done()
			return
		}

		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := defaultConfig(server.URL)
	cfg.Circuit.MaxFailures = 2
	client := newTestClient(t, cfg)

	_, err := client.Get(context.Background(), "/fail")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err = client.Get(ctx, "/slow")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, client.CircuitState())

	_, err = client.Get(context.Background(), "/fail")
	require.NoError(t, err)
	assert.Equal(t, StateOpen, client.CircuitState())
}

func TestClient_PostAndPatchSendJSONAPIBody(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, method, r.Method)
				assert.Equal(t, MediaType, r.Header.Get("Content-Type"))

				body, err := io.ReadAll(r.Body)
				assert.NoError(t, err)
				assert.JSONEq(t, `{"data":{"type":"players"}}`, string(body))

				w.WriteHeader(http.StatusCreated)
			}))
			defer server.Close()

			client := newTestClient(t, defaultConfig(server.URL))
			body := strings.NewReader(`{"data":{"type":"players"}}`)

			var (
				resp *Response
				err  error
			)

			if method == http.MethodPost {
				resp, err = client.Post(context.Background(), "/players", body)
			} else {
				resp, err = client.Patch(context.Background(), "/players", body)
			}

			require.NoError(t, err)
			assert.Equal(t, http.StatusCreated, resp.StatusCode)
		})
	}
}

func TestClient_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, defaultConfig(server.URL))

	resp, err := client.Delete(context.Background(), "/players/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Body)
}

func TestClient_BuildURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		path    string
		want    string
	}{
		{"leading slash", "https://api.example.com", "/players", "https://api.example.com/players"},
		{"no leading slash", "https://api.example.com", "players", "https://api.example.com/players"},
		{"trailing slash on base", "https://api.example.com/", "/players", "https://api.example.com/players"},
		{"base with path", "https://api.example.com/v1", "/players", "https://api.example.com/v1/players"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, defaultConfig(tt.baseURL))
			assert.Equal(t, tt.want, client.buildURL(tt.path))
		})
	}
}
