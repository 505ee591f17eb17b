package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/jsonapi-gateway/internal/app"
	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
	"github.com/jsamuelsen/jsonapi-gateway/internal/jsonapi"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/logging"
)

// DocumentService is the application service behind the document endpoints.
type DocumentService interface {
	FetchDocument(ctx context.Context, path string) (*domain.Document, jsonapi.Report, error)
	DecodeDocument(ctx context.Context, status int, body []byte) (*domain.Document, jsonapi.Report, error)
	FetchDocuments(ctx context.Context, paths []string) ([]app.BatchResult, error)
}

// DocumentHandler serves decoded JSON:API documents.
type DocumentHandler struct {
	service DocumentService
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(service DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// GetResource handles GET /api/v1/resources/*path.
//
// The path and query string are forwarded to the upstream, except for the report
// parameter, which adds decode statistics to the response.
func (h *DocumentHandler) GetResource(c *gin.Context) {
	var query dto.ResourceQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		respondBindError(c, err)
		return
	}

	doc, report, err := h.service.FetchDocument(c.Request.Context(), upstreamPath(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDocumentResponse(doc, reportIf(query.Report, report)))
}

// Decode handles POST /api/v1/documents/decode. It classifies and decodes a
// response body the caller already holds.
func (h *DocumentHandler) Decode(c *gin.Context) {
	var req dto.DecodeRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	doc, report, err := h.service.DecodeDocument(c.Request.Context(), req.Status, []byte(req.Body))
	if err != nil {
		if domain.IsParse(err) {
			dto.RespondWithErrorCode(c, dto.ErrorCodeInvalidDocument, err.Error())
			return
		}

		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusOK, dto.NewDocumentResponse(doc, &report))
}

// Batch handles POST /api/v1/documents/batch. Every path gets its own result; a
// failing path does not fail the request.
func (h *DocumentHandler) Batch(c *gin.Context) {
	var req dto.BatchRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	results, err := h.service.FetchDocuments(c.Request.Context(), req.Paths)
	if err != nil {
		var tooLarge *app.BatchTooLargeError
		if errors.As(err, &tooLarge) {
			dto.RespondWithErrorCode(c, dto.ErrorCodeBatchTooLarge, err.Error())
			return
		}

		dto.HandleError(c, err)

		return
	}

	resp := dto.BatchResponse{Results: make([]dto.BatchItem, 0, len(results))}

	for _, r := range results {
		item := dto.BatchItem{Path: r.Path}

		if r.Err != nil {
			detail := dto.ErrorDetailFor(r.Err)
			item.Status = dto.HTTPStatusFromCode(detail.Code)
			item.Error = &detail
			resp.Failed++
		} else {
			report := r.Report
			item.Status = http.StatusOK
			item.Document = dto.NewDocumentResponse(r.Document, &report)
			resp.Succeeded++
		}

		resp.Results = append(resp.Results, item)
	}

	logging.FromContext(c.Request.Context()).DebugContext(c.Request.Context(), "batch served",
		slog.Int("succeeded", resp.Succeeded),
		slog.Int("failed", resp.Failed),
	)

	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers the document routes on rg.
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resources/*path", h.GetResource)
	rg.POST("/documents/decode", h.Decode)
	rg.POST("/documents/batch", h.Batch)
}

// upstreamPath rebuilds the upstream request path from the wildcard segment and the
// query string without the gateway's own parameters.
func upstreamPath(c *gin.Context) string {
	path := c.Param("path")

	query := c.Request.URL.Query()
	query.Del("report")

	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	return path
}

func reportIf(include bool, report jsonapi.Report) *jsonapi.Report {
	if !include {
		return nil
	}

	return &report
}

func respondBindError(c *gin.Context, err error) {
	if dto.IsValidationError(err) {
		dto.RespondWithValidationErrors(c, err)
		return
	}

	dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, err.Error())
}
