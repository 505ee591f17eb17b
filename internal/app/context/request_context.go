package context

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

type ctxKey struct{}

// RequestContext memoizes fetches for the lifetime of one request.
type RequestContext struct {
	ctx    context.Context
	cache  sync.Map
	flight singleflight.Group
}

// New creates a RequestContext wrapping ctx.
func New(ctx context.Context) *RequestContext {
	return &RequestContext{ctx: ctx}
}

// FromContext extracts the RequestContext, or nil if none is present.
func FromContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		return nil
	}

	if rc, ok := ctx.Value(ctxKey{}).(*RequestContext); ok {
		return rc
	}

	return nil
}

// WithContext stores rc in ctx.
func WithContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// GetOrFetch returns the cached value for key or runs fetchFn once to obtain it.
// fetchFn receives the request's context, not the caller's.
func (rc *RequestContext) GetOrFetch(key string, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	if cached, ok := rc.cache.Load(key); ok {
		return cached, nil
	}

	value, err, _ := rc.flight.Do(key, func() (any, error) {
		if cached, ok := rc.cache.Load(key); ok {
			return cached, nil
		}

		v, err := fetchFn(rc.ctx)
		if err != nil {
			return nil, err
		}

		rc.cache.Store(key, v)

		return v, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Context returns the underlying context.
func (rc *RequestContext) Context() context.Context {
	return rc.ctx
}
