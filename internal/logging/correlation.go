package logging

import "context"

type contextKey int

const correlationIDKey contextKey = iota

// WithCorrelationID stores a request correlation ID in the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the correlation ID stored in the context, or ""
// outside a correlated request.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
