package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/config"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/logging"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/telemetry"
)

const (
	// MediaType is the JSON:API media type sent in Accept and Content-Type headers.
	MediaType = "application/vnd.api+json"

	instrumentationName = telemetry.InstrumentationName + "/clients"

	defaultTimeout         = 10 * time.Second
	defaultMaxResponseSize = 10 << 20
)

// Config configures a Client.
type Config struct {
	// BaseURL is prepended to every request path.
	BaseURL string

	// ServiceName identifies the upstream in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration

	// MaxResponseSize caps how many body bytes are read.
	MaxResponseSize int64

	// Circuit configures the circuit breaker.
	Circuit config.CircuitBreakerConfig

	// Transport overrides the HTTP transport. Nil means http.DefaultTransport.
	Transport http.RoundTripper

	// Logger is used for lifecycle events such as breaker state changes.
	Logger *slog.Logger
}

// Response is an upstream response whose body has been fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client sends single-attempt requests to one upstream service. It adds circuit
// breaking, OpenTelemetry spans and metrics, trace-context and ID propagation and
// structured logging. Responses of every status are returned to the caller; only
// transport failures are errors.
type Client struct {
	http            *http.Client
	baseURL         string
	serviceName     string
	maxResponseSize int64
	cb              *CircuitBreaker

	tracer   trace.Tracer
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

// New creates a Client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxResponseSize := cfg.MaxResponseSize
	if maxResponseSize <= 0 {
		maxResponseSize = defaultMaxResponseSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("upstream", cfg.ServiceName),
	)

	cb := NewCircuitBreaker(cfg.Circuit)
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of upstream HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	total, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of upstream HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName:     cfg.ServiceName,
		maxResponseSize: maxResponseSize,
		cb:              cb,
		tracer:          otel.Tracer(instrumentationName),
		duration:        duration,
		total:           total,
	}, nil
}

// ServiceName returns the configured upstream name.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// CircuitState returns the current state of the circuit breaker.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// Do sends req once and reads the whole response body.
//
// Errors are ErrCircuitOpen when the breaker rejects the call, ErrRequestFailed
// wrapping the transport error, or ErrResponseTooLarge. 5xx responses are returned
// normally but count as breaker failures.
func (c *Client) Do(ctx context.Context, req *http.Request) (*Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("upstream", c.serviceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.record(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", req.Method, c.serviceName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	req = req.WithContext(ctx)
	c.injectHeaders(ctx, req)

	resp, err := c.send(req)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() == nil || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.cb.RecordFailure()
		} else {
			// The caller gave up; that says nothing about the upstream.
			c.cb.Release()
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.record(ctx, req.Method, 0, elapsed, "error")
		logger.ErrorContext(ctx, "upstream request failed",
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)

		return nil, err
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.cb.RecordFailure()
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	} else {
		c.cb.RecordSuccess()
	}

	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.Int("http.response.body.size", len(resp.Body)),
	)
	c.record(ctx, req.Method, resp.StatusCode, elapsed, fmt.Sprintf("%dxx", resp.StatusCode/100))

	logger.DebugContext(ctx, "upstream request completed",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(resp.Body)),
		slog.Duration("duration", elapsed),
	)

	return resp, nil
}

// send performs the round trip and reads the body within the size limit.
func (c *Client) send(req *http.Request) (*Response, error) {
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}

	if int64(len(body)) > c.maxResponseSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, c.maxResponseSize)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

// Post sends a POST request with a JSON:API body.
func (c *Client) Post(ctx context.Context, path string, body io.Reader) (*Response, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

// Patch sends a PATCH request with a JSON:API body.
func (c *Client) Patch(ctx context.Context, path string, body io.Reader) (*Response, error) {
	return c.request(ctx, http.MethodPatch, path, body)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodDelete, path, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*Response, error) {
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if body != http.NoBody {
		req.Header.Set("Content-Type", MediaType)
	}

	return c.Do(ctx, req)
}

// injectHeaders sets the JSON:API Accept header, propagates request and
// correlation IDs and injects the W3C trace context.
func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", MediaType)
	}

	middleware.PropagateIDs(ctx, req.Header)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

// buildURL joins the base URL and path with exactly one slash.
func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

func (c *Client) record(ctx context.Context, method string, status int, elapsed time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	opt := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, elapsed.Seconds(), opt)
	c.total.Add(ctx, 1, opt)
}
