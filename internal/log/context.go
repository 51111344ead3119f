package log

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
)

// Attribute keys added from the context.
const (
	CorrelationIDAttr = "correlation_id"
	RequestIDAttr     = "request_id"
)

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// RequestID extracts the request ID from context.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextAttrs returns the IDs stored in ctx as slog key/value pairs, for
// loggers that were not built by this package.
func ContextAttrs(ctx context.Context) []any {
	attrs := make([]any, 0, 4)
	if id := CorrelationID(ctx); id != "" {
		attrs = append(attrs, CorrelationIDAttr, id)
	}
	if id := RequestID(ctx); id != "" {
		attrs = append(attrs, RequestIDAttr, id)
	}
	return attrs
}

// contextHandler copies the IDs from the record's context onto the record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := CorrelationID(ctx); id != "" {
			r.AddAttrs(slog.String(CorrelationIDAttr, id))
		}
		if id := RequestID(ctx); id != "" {
			r.AddAttrs(slog.String(RequestIDAttr, id))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
