package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
	"github.com/jsamuelsen/jsonapi-gateway/internal/jsonapi"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/logging"
)

// ResourceClientConfig configures a ResourceClient.
type ResourceClientConfig struct {
	// Client is the HTTP client pointed at the upstream's base URL.
	Client *clients.Client

	// HealthPath is requested by Check. Defaults to "/".
	HealthPath string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// ResourceClient fetches and decodes documents from one upstream JSON:API service.
// It implements ports.DocumentClient and ports.HealthChecker.
type ResourceClient struct {
	BaseAdapter

	healthPath string
	logger     *slog.Logger
}

// NewResourceClient creates a ResourceClient.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewResourceClient(cfg ResourceClientConfig) *ResourceClient {
	if cfg.Client == nil {
		panic("ResourceClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/"
	}

	return &ResourceClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, ""),
		healthPath:  healthPath,
		logger:      logger,
	}
}

// FetchDocument retrieves path from the upstream and decodes it.
func (c *ResourceClient) FetchDocument(ctx context.Context, path string) (*domain.Document, jsonapi.Report, error) {
	c.logger.Log(ctx, logging.LevelTrace, "fetching document", slog.String("path", path))

	doc, report, err := c.Fetch(ctx, path, "fetch "+path)
	if err != nil {
		return nil, report, err
	}

	c.logger.Log(ctx, logging.LevelTrace, "document fetched",
		slog.String("path", path),
		slog.Int("resources", report.Resources),
		slog.Int("linkages", report.Linkages),
	)

	return doc, report, nil
}

// Name returns the upstream name for health reporting.
func (c *ResourceClient) Name() string {
	return c.ServiceName()
}

// Check requests the health path. The upstream is healthy unless the request fails
// or the status classifies to an error kind.
func (c *ResourceClient) Check(ctx context.Context) error {
	resp, err := c.Client().Get(ctx, c.healthPath)
	if err != nil {
		return MapClientError(err, c.ServiceName(), "health check")
	}

	if kind := domain.Classify(resp.StatusCode); kind != domain.KindNone {
		return domain.NewTransportError(c.ServiceName(),
			fmt.Sprintf("health check returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	return nil
}
