// Package dto provides the request and response shapes of the gateway's HTTP API.
package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/logging"
)

// ErrorResponse is the error envelope for every non-2xx gateway response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is a machine-readable error code such as "NOT_FOUND".
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details holds field-level messages for validation errors.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	ErrorCodeUnauthorized       = "UNAUTHORIZED"
	ErrorCodeForbidden          = "FORBIDDEN"
	ErrorCodeNotFound           = "NOT_FOUND"
	ErrorCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrorCodeUpstream           = "UPSTREAM_ERROR"
	ErrorCodeBadGateway         = "BAD_GATEWAY"
	ErrorCodeUnavailable        = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout            = "TIMEOUT"
	ErrorCodeInvalidUpstreamDoc = "INVALID_UPSTREAM_DOCUMENT"
	ErrorCodeInvalidDocument    = "INVALID_DOCUMENT"
	ErrorCodeValidation         = "VALIDATION_ERROR"
	ErrorCodeBadRequest         = "BAD_REQUEST"
	ErrorCodeBatchTooLarge      = "BATCH_TOO_LARGE"
	ErrorCodeInternal           = "INTERNAL_ERROR"
)

// kindCodes maps each protocol error kind to its gateway error code.
var kindCodes = map[domain.ErrorKind]string{
	domain.KindUnauthorized: ErrorCodeUnauthorized,
	domain.KindForbidden:    ErrorCodeForbidden,
	domain.KindNotFound:     ErrorCodeNotFound,
	domain.KindServerError:  ErrorCodeUpstream,
	domain.KindBadGateway:   ErrorCodeBadGateway,
	domain.KindUnavailable:  ErrorCodeUnavailable,
	domain.KindTimeOut:      ErrorCodeTimeout,
}

// NewErrorResponse creates an error response with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithDetails creates an error response with field-level details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(code, message)
	resp.Error.Details = details

	return resp
}

// WithTraceID adds a trace ID to the error response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorCodeUpstream:
		return http.StatusInternalServerError
	case ErrorCodeBadGateway, ErrorCodeInvalidUpstreamDoc:
		return http.StatusBadGateway
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrorCodeInvalidDocument:
		return http.StatusUnprocessableEntity
	case ErrorCodeValidation, ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodeBatchTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// ErrorDetailFor maps an upstream fetch error to its error detail.
//
// Protocol kinds keep their status: an upstream 404 is a 404 here and an upstream
// 500 is a 500 with code UPSTREAM_ERROR. A malformed upstream body is a 502 and a
// transport failure a 503. Anything else is an internal error whose message is not
// exposed.
func ErrorDetailFor(err error) ErrorDetail {
	if kind := domain.KindOf(err); kind != domain.KindNone {
		return ErrorDetail{Code: kindCodes[kind], Message: err.Error()}
	}

	var parseErr *domain.ParseError

	switch {
	case errors.As(err, &parseErr):
		return ErrorDetail{Code: ErrorCodeInvalidUpstreamDoc, Message: parseErr.Error()}
	case domain.IsTransport(err):
		return ErrorDetail{Code: ErrorCodeUnavailable, Message: err.Error()}
	default:
		return ErrorDetail{Code: ErrorCodeInternal, Message: "an internal error occurred"}
	}
}

// MapDomainError maps a domain error to an HTTP status and error response.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	detail := ErrorDetailFor(err)

	return HTTPStatusFromCode(detail.Code), &ErrorResponse{Error: detail}
}

// HandleError writes the error response for err, including the trace ID when the
// request is traced. Internal errors are logged with full detail.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	if resp.Error.Code == ErrorCodeInternal {
		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "internal error",
			"error", err.Error(),
			"trace_id", resp.TraceID,
		)
	}

	c.JSON(status, resp)
}

// RespondWithErrorCode writes an error response with a specific code.
func RespondWithErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(GetTraceID(c))
	c.JSON(HTTPStatusFromCode(code), resp)
}

// AbortWithErrorCode aborts the handler chain with a specific code.
func AbortWithErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(GetTraceID(c))
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), resp)
}

// RespondWithValidationErrors writes a 400 response with field-level messages.
func RespondWithValidationErrors(c *gin.Context, err error) {
	resp := NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", ValidationErrors(err))
	resp.TraceID = GetTraceID(c)

	c.JSON(http.StatusBadRequest, resp)
}

// GetTraceID returns the OpenTelemetry trace ID of the request, or "" when untraced.
func GetTraceID(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}

	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}
