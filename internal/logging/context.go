package logging

import (
	"context"
	"log/slog"
)

type ctxKey string

const (
	loggerKey    ctxKey = "logger"
	requestIDKey ctxKey = "requestID"
	traceKey     ctxKey = "trace"
)

// traceInfo identifies the span currently active on a context.
type traceInfo struct {
	TraceID string
	SpanID  string
}

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger or falls back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID stores a request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves a previously stored request identifier.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}

// TraceIDFromContext returns the trace identifier of the active span, if any.
func TraceIDFromContext(ctx context.Context) string {
	return traceFromContext(ctx).TraceID
}

// SpanIDFromContext returns the identifier of the active span, if any.
func SpanIDFromContext(ctx context.Context) string {
	return traceFromContext(ctx).SpanID
}

func withTrace(ctx context.Context, info traceInfo) context.Context {
	return context.WithValue(ctx, traceKey, info)
}

func traceFromContext(ctx context.Context) traceInfo {
	if ctx == nil {
		return traceInfo{}
	}
	info, _ := ctx.Value(traceKey).(traceInfo)
	return info
}
