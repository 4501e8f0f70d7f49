package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span represents a logical unit of work tied to a request trace.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx. The request id, when present, doubles as
// the trace id so service logs line up with the request log line.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)
	parent := traceFromContext(ctx)

	info := traceInfo{TraceID: parent.TraceID, SpanID: uuid.NewString()}
	if info.TraceID == "" {
		info.TraceID = RequestIDFromContext(ctx)
		if info.TraceID == "" {
			info.TraceID = uuid.NewString()
		}
		logger = logger.With(slog.String("trace_id", info.TraceID))
	}

	logger = logger.With(
		slog.String("span_id", info.SpanID),
		slog.String("span_name", name),
	)
	if parent.SpanID != "" {
		logger = logger.With(slog.String("parent_span_id", parent.SpanID))
	}

	ctx = WithLogger(ctx, logger)
	ctx = withTrace(ctx, info)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// End emits a completion entry at debug level.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Debug("span completed", slog.Duration("duration", time.Since(s.start)))
}
