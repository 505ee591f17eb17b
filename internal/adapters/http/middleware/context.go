// Package middleware provides the gin middleware of the gateway.
package middleware

import (
	"context"
	"net/http"
)

type idsKey struct{}

// requestIDs are the identifiers an inbound request carries to the upstream.
type requestIDs struct {
	request     string
	correlation string
}

func idsFromContext(ctx context.Context) requestIDs {
	if ctx == nil {
		return requestIDs{}
	}

	ids, _ := ctx.Value(idsKey{}).(requestIDs)

	return ids
}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	return idsFromContext(ctx).request
}

// CorrelationIDFromContext returns the correlation ID stored in ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return idsFromContext(ctx).correlation
}

// ContextWithRequestID stores a request ID in ctx, keeping any correlation ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	ids := idsFromContext(ctx)
	ids.request = id

	return context.WithValue(ctx, idsKey{}, ids)
}

// ContextWithCorrelationID stores a correlation ID in ctx, keeping any request ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	ids := idsFromContext(ctx)
	ids.correlation = id

	return context.WithValue(ctx, idsKey{}, ids)
}

// PropagateIDs copies the IDs stored in ctx onto outbound upstream headers.
// Empty IDs leave h untouched.
func PropagateIDs(ctx context.Context, h http.Header) {
	ids := idsFromContext(ctx)

	if ids.request != "" {
		h.Set(HeaderRequestID, ids.request)
	}

	if ids.correlation != "" {
		h.Set(HeaderCorrelationID, ids.correlation)
	}
}
