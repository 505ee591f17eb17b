package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/jsonapi-gateway/internal/app"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/config"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/metrics"
	"github.com/jsamuelsen/jsonapi-gateway/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServerConfig(host string, port int) *config.ServerConfig {
	return &config.ServerConfig{
		Host:           host,
		Port:           port,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: 1 << 20,
	}
}

func TestServerNew(t *testing.T) {
	cfg := testServerConfig("127.0.0.1", 8080)
	logger := discardLogger()

	srv := New(cfg, logger)

	require.NotNil(t, srv)
	assert.NotNil(t, srv.Engine())
	assert.IsType(t, &gin.Engine{}, srv.Engine())
	assert.Equal(t, cfg, srv.Config())
	assert.Equal(t, logger, srv.logger)
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		name         string
		host         string
		port         int
		expectedAddr string
	}{
		{"localhost with port 8080", "localhost", 8080, "localhost:8080"},
		{"0.0.0.0 with port 3000", "0.0.0.0", 3000, "0.0.0.0:3000"},
		{"127.0.0.1 with port 0", "127.0.0.1", 0, "127.0.0.1:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(testServerConfig(tt.host, tt.port), discardLogger())
			assert.Equal(t, tt.expectedAddr, srv.Addr())
		})
	}
}

func TestServerStartShutdown(t *testing.T) {
	srv := New(testServerConfig("127.0.0.1", 0), discardLogger())

	srv.Engine().GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	errCh := srv.Start()

	time.Sleep(100 * time.Millisecond)

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("server start error: %v", err)
		}
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	_, ok := <-errCh
	assert.False(t, ok, "error channel should be closed")
}

func TestServer_LimitsRequestBody(t *testing.T) {
	cfg := testServerConfig("127.0.0.1", 0)
	cfg.MaxRequestSize = 16

	srv := New(cfg, discardLogger())
	SetupRouter(srv.Engine(), RouterConfig{
		Logger:          discardLogger(),
		AppConfig:       &config.AppConfig{Name: "test"},
		DocumentHandler: handlers.NewDocumentHandler(app.NewDocumentService(app.DocumentServiceConfig{})),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/decode",
		strings.NewReader(`{"status":200,"body":"{\"data\":null}"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"BAD_REQUEST"`)
}

func TestServer_UnknownRoutesUseErrorEnvelope(t *testing.T) {
	srv := New(testServerConfig("127.0.0.1", 0), discardLogger())
	SetupRouter(srv.Engine(), RouterConfig{
		Logger:          discardLogger(),
		AppConfig:       &config.AppConfig{Name: "test"},
		DocumentHandler: handlers.NewDocumentHandler(app.NewDocumentService(app.DocumentServiceConfig{})),
	})

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"unknown path", http.MethodGet, "/api/v2/players", http.StatusNotFound, `"code":"NOT_FOUND"`},
		{"wrong method", http.MethodGet, "/api/v1/documents/decode", http.StatusMethodNotAllowed, `"code":"METHOD_NOT_ALLOWED"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Engine().ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}

func TestNewDefaultRouterConfig(t *testing.T) {
	logger := discardLogger()
	appCfg := &config.AppConfig{Name: "test-service"}
	health := handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{}, nil)
	docs := handlers.NewDocumentHandler(app.NewDocumentService(app.DocumentServiceConfig{}))

	cfg := NewDefaultRouterConfig(logger, appCfg, health, docs)

	assert.Equal(t, logger, cfg.Logger)
	assert.Equal(t, appCfg, cfg.AppConfig)
	assert.Equal(t, health, cfg.HealthHandler)
	assert.Equal(t, docs, cfg.DocumentHandler)
	assert.Equal(t, DefaultRequestTimeout, cfg.Timeout)
}

func TestSetupMinimalRouter(t *testing.T) {
	engine := gin.New()
	health := handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{}, nil)

	SetupMinimalRouter(engine, discardLogger(), health)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	SetupMinimalRouter(gin.New(), discardLogger(), nil)
}

func newTestRouter(t *testing.T, timeout time.Duration) *gin.Engine {
	t.Helper()

	reg := metrics.NewRegistry()
	decoder, err := metrics.NewDecoder(reg)
	require.NoError(t, err)

	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:        discardLogger(),
		AppConfig:     &config.AppConfig{Name: "test-service"},
		HealthHandler: handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{Version: "test"}, metrics.Handler(reg)),
		DocumentHandler: handlers.NewDocumentHandler(app.NewDocumentService(app.DocumentServiceConfig{
			Metrics: decoder,
			Logger:  discardLogger(),
		})),
		Timeout: timeout,
	})

	return engine
}

func TestSetupRouter(t *testing.T) {
	engine := newTestRouter(t, time.Second)

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /-/build",
		"GET /-/metrics",
		"GET /api/v1/resources/*path",
		"POST /api/v1/documents/decode",
		"POST /api/v1/documents/batch",
	} {
		assert.True(t, routes[want], "missing route: %s", want)
	}
}

func TestSetupRouter_DecodeEndToEnd(t *testing.T) {
	engine := newTestRouter(t, time.Second)

	body := `{"status":200,"body":"{\"data\":{\"type\":\"players\",\"id\":\"1\",\"attributes\":{\"name\":\"Roger\"}}}"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/decode", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderRequestID, "req-e2e")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-e2e", w.Header().Get(middleware.HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderCorrelationID))
	assert.Contains(t, w.Body.String(), `"name":"Roger"`)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/metrics", nil))
	assert.Contains(t, w.Body.String(), `jsonapi_documents_total{outcome="ok"} 1`)
}

func TestSetupRouter_FetchWithoutUpstream(t *testing.T) {
	engine := newTestRouter(t, 0)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/resources/players", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL_ERROR"`)
}

func TestSetupRouter_RecoversPanics(t *testing.T) {
	engine := newTestRouter(t, time.Second)
	engine.GET("/api/v1/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSetupRouterWithNilHandlers(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:    discardLogger(),
		AppConfig: &config.AppConfig{Name: "test-service"},
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
