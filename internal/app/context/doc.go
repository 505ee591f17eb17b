// Package context provides request-scoped memoization for application services.
//
// A RequestContext lives for one inbound request. Fetches made through GetOrFetch
// are shared by key, so a batch that names the same upstream path twice reaches
// the upstream once:
//
//	rc := appctx.New(ctx)
//	ctx = appctx.WithContext(ctx, rc)
//
//	v, err := rc.GetOrFetch("GET /players", func(ctx context.Context) (any, error) {
//	    return client.FetchDocument(ctx, "/players")
//	})
//
// Concurrent callers with the same key wait for a single in-flight fetch. Successful
// results are cached for the rest of the request; failures are not.
package context
