package auditctx

import "context"

// Origin captures where a request came from so service-layer audit entries can
// record it without depending on the HTTP layer.
type Origin struct {
	RequestID string
	IPAddress string
	UserAgent string
}

type originContextKey struct{}

// WithOrigin injects request metadata into the supplied context.
func WithOrigin(ctx context.Context, origin Origin) context.Context {
	if ctx == nil {
		return context.WithValue(context.Background(), originContextKey{}, origin)
	}
	return context.WithValue(ctx, originContextKey{}, origin)
}

// FromContext extracts previously stored request metadata.
func FromContext(ctx context.Context) (Origin, bool) {
	if ctx == nil {
		return Origin{}, false
	}
	origin, ok := ctx.Value(originContextKey{}).(Origin)
	return origin, ok
}
