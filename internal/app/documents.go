// Package app contains the application services that orchestrate document use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appctx "github.com/jsamuelsen/jsonapi-gateway/internal/app/context"
	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
	"github.com/jsamuelsen/jsonapi-gateway/internal/jsonapi"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/metrics"
	"github.com/jsamuelsen/jsonapi-gateway/internal/ports"
)

// ErrNoUpstream is returned by fetch operations when no DocumentClient is configured.
var ErrNoUpstream = errors.New("no upstream configured")

// BatchTooLargeError is returned when a batch names more paths than allowed.
type BatchTooLargeError struct {
	Requested int
	Limit     int
}

// Error implements the error interface.
func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch of %d paths exceeds the limit of %d", e.Requested, e.Limit)
}

// DocumentServiceConfig contains the dependencies of a DocumentService.
type DocumentServiceConfig struct {
	// Client fetches documents from the upstream. Optional for decode-only use.
	Client ports.DocumentClient

	// Metrics records per-document outcomes. Nil disables recording.
	Metrics *metrics.Decoder

	// UnresolvedWarnRatio is the unresolved-linkage share at or above which a decode
	// is logged at warn level.
	UnresolvedWarnRatio float64

	// BatchLimit caps the number of paths per batch. Zero means unlimited.
	BatchLimit int

	// BatchConcurrency caps concurrent upstream requests per batch. Zero means unlimited.
	BatchConcurrency int

	Logger *slog.Logger
}

// DocumentService fetches and decodes JSON:API documents and reports on the result.
type DocumentService struct {
	client      ports.DocumentClient
	metrics     *metrics.Decoder
	warnRatio   float64
	batchLimit  int
	concurrency int
	logger      *slog.Logger
}

// NewDocumentService creates a document service.
func NewDocumentService(cfg DocumentServiceConfig) *DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DocumentService{
		client:      cfg.Client,
		metrics:     cfg.Metrics,
		warnRatio:   cfg.UnresolvedWarnRatio,
		batchLimit:  cfg.BatchLimit,
		concurrency: cfg.BatchConcurrency,
		logger:      logger,
	}
}

// FetchDocument retrieves and decodes path from the upstream.
func (s *DocumentService) FetchDocument(ctx context.Context, path string) (*domain.Document, jsonapi.Report, error) {
	if s.client == nil {
		return nil, jsonapi.Report{}, ErrNoUpstream
	}

	doc, report, err := s.client.FetchDocument(ctx, path)
	s.observe(ctx, path, report, err)

	if err != nil {
		return nil, report, err
	}

	return doc, report, nil
}

// DecodeDocument classifies and decodes a response that was obtained elsewhere.
func (s *DocumentService) DecodeDocument(ctx context.Context, status int, body []byte) (*domain.Document, jsonapi.Report, error) {
	doc, report, err := jsonapi.ParseResponseWithReport(status, body)
	s.observe(ctx, "", report, err)

	if err != nil {
		return nil, report, err
	}

	return doc, report, nil
}

// BatchResult is the outcome of fetching one path of a batch.
type BatchResult struct {
	Path     string
	Document *domain.Document
	Report   jsonapi.Report
	Err      error
}

// FetchDocuments fetches every path concurrently and returns one result per path,
// in request order. A failing path does not fail the batch. Paths repeated within
// one batch are fetched once.
func (s *DocumentService) FetchDocuments(ctx context.Context, paths []string) ([]BatchResult, error) {
	if s.client == nil {
		return nil, ErrNoUpstream
	}

	if s.batchLimit > 0 && len(paths) > s.batchLimit {
		return nil, &BatchTooLargeError{Requested: len(paths), Limit: s.batchLimit}
	}

	rc := appctx.FromContext(ctx)
	if rc == nil {
		rc = appctx.New(ctx)
		ctx = appctx.WithContext(ctx, rc)
	}

	type fetched struct {
		doc    *domain.Document
		report jsonapi.Report
	}

	fns := make([]func(context.Context) (fetched, error), len(paths))
	for i, path := range paths {
		fns[i] = func(context.Context) (fetched, error) {
			v, err := rc.GetOrFetch("GET "+path, func(ctx context.Context) (any, error) {
				doc, report, err := s.FetchDocument(ctx, path)
				if err != nil {
					return nil, err
				}

				return fetched{doc: doc, report: report}, nil
			})
			if err != nil {
				return fetched{}, err
			}

			return v.(fetched), nil
		}
	}

	partial := ParallelPartialLimit(ctx, s.concurrency, fns...)

	results := make([]BatchResult, len(paths))
	failed := 0

	for i, r := range partial {
		results[i] = BatchResult{
			Path:     paths[i],
			Document: r.Value.doc,
			Report:   r.Value.report,
			Err:      r.Err,
		}

		if r.Err != nil {
			failed++
		}
	}

	s.logger.DebugContext(ctx, "batch fetched",
		slog.Int("paths", len(paths)),
		slog.Int("failed", failed),
	)

	return results, nil
}

// observe records metrics and logs for one handled document.
func (s *DocumentService) observe(ctx context.Context, path string, report jsonapi.Report, err error) {
	outcome := Outcome(err)
	s.metrics.ObserveOutcome(outcome)

	logger := s.logger
	if path != "" {
		logger = logger.With(slog.String("path", path))
	}

	if err != nil {
		level := slog.LevelWarn
		if domain.IsProtocol(err) {
			level = slog.LevelInfo
		}

		logger.Log(ctx, level, "document not decoded",
			slog.String("outcome", outcome),
			slog.Any("error", err),
		)

		return
	}

	s.metrics.ObserveDecode(report.Resources, report.Linkages, report.Unresolved)

	attrs := []any{
		slog.Int("resources", report.Resources),
		slog.Int("merged", report.Merged),
		slog.Int("linkages", report.Linkages),
		slog.Int("unresolved", report.Unresolved),
	}

	if report.Unresolved > 0 && report.UnresolvedRatio() >= s.warnRatio {
		logger.WarnContext(ctx, "document has unresolved relationship linkages", attrs...)
		return
	}

	logger.DebugContext(ctx, "document decoded", attrs...)
}

// Outcome names the outcome of handling one document for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case domain.IsProtocol(err):
		return domain.KindOf(err).String()
	case domain.IsParse(err):
		return metrics.OutcomeParseError
	case domain.IsTransport(err):
		return metrics.OutcomeTransportError
	default:
		return "error"
	}
}
