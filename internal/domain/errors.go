// Package domain contains the JSON:API document types, the status classifier and
// the error taxonomy shared by every layer.
// Domain errors are infrastructure-agnostic and can be mapped to HTTP/CLI/etc by adapters.
package domain

import (
	"errors"
	"fmt"
)

// maxBodyInMessage caps how much of a response body is echoed into Error() strings.
// The full body is always kept on the error value.
const maxBodyInMessage = 512

// Sentinel errors for use with errors.Is().
var (
	// ErrUnauthorized indicates the upstream API requires authentication (401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the upstream API refused an authenticated request (403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist upstream (404).
	ErrNotFound = errors.New("not found")

	// ErrServerError indicates the upstream API failed internally (500).
	ErrServerError = errors.New("server error")

	// ErrBadGateway indicates a proxy in front of the API could not reach it (502).
	ErrBadGateway = errors.New("bad gateway")

	// ErrUnavailable indicates the upstream API is unavailable (503).
	ErrUnavailable = errors.New("unavailable")

	// ErrTimeOut indicates a proxy in front of the API gave up waiting (504).
	ErrTimeOut = errors.New("time out")

	// ErrParse indicates a response body is not a usable JSON document.
	ErrParse = errors.New("parse error")

	// ErrTransport indicates no response was received at all.
	ErrTransport = errors.New("transport failure")
)

// ResponseError is a protocol-level failure classified from an HTTP status code.
// Body holds the raw response body for diagnostics; it is never decoded.
type ResponseError struct {
	Kind   ErrorKind
	Status int
	Body   []byte
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Kind, e.Status)
	}

	body := e.Body
	if len(body) > maxBodyInMessage {
		body = body[:maxBodyInMessage]
	}

	return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, body)
}

// Unwrap returns the sentinel error for the kind, enabling errors.Is().
func (e *ResponseError) Unwrap() error {
	return e.Kind.Sentinel()
}

// NewResponseError creates a classified protocol error.
func NewResponseError(kind ErrorKind, status int, body []byte) error {
	return &ResponseError{Kind: kind, Status: status, Body: body}
}

// ParseError reports a body that is not valid JSON, or whose top level is the wrong shape.
type ParseError struct {
	Body   string
	Reason string
	cause  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("response from the API must be a JSON object or array (last JSON response was %q)", e.Body)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

// Unwrap returns the sentinel and, when present, the underlying decoder error.
func (e *ParseError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrParse, e.cause}
	}

	return []error{ErrParse}
}

// NewParseError creates a parse error for the given body.
func NewParseError(body, reason string) error {
	return &ParseError{Body: body, Reason: reason}
}

// NewParseErrorWithCause creates a parse error that also wraps the decoder failure.
func NewParseErrorWithCause(body string, cause error) error {
	return &ParseError{Body: body, Reason: cause.Error(), cause: cause}
}

// TransportError reports that no response could be obtained from a service.
type TransportError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("request to service %q failed: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("request to service %q failed", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *TransportError) Unwrap() error {
	return ErrTransport
}

// NewTransportError creates a transport-level error with context.
func NewTransportError(service, reason string) error {
	return &TransportError{Service: service, Reason: reason}
}

// KindOf returns the protocol kind carried by err, or KindNone.
func KindOf(err error) ErrorKind {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Kind
	}

	return KindNone
}

// IsProtocol checks if an error is a classified protocol error of any kind.
func IsProtocol(err error) bool {
	return KindOf(err) != KindNone
}

// IsUnauthorized checks if an error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsParse checks if an error is a parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
