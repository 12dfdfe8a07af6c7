package transport

import "context"

// Response is a completed HTTP exchange. Non-2xx statuses are returned as
// responses, never as errors, so callers can classify them uniformly.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type requestIDKey struct{}

// WithRequestID attaches the id sent as X-Request-ID by every call made
// with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached by WithRequestID, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
