package workerpresentation

import (
	"context"

	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects a request-scoped logger for background/worker executions.
// Dynamic fields only: trace_id/span_id (if valid), event_id (generated if empty),
// plus caller-provided low-cardinality attributes (e.g. "event", "worker").
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	traceID trace.TraceID,
	spanID trace.SpanID,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	fields := make([]observability.Field, 0, 3+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if traceID.IsValid() {
		fields = append(fields, observability.F("trace_id", traceID.String()))
	}
	if spanID.IsValid() {
		fields = append(fields, observability.F("span_id", spanID.String()))
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// EventMiddleware wraps an event handler so every run gets its own event-scoped
// logger. The logger already on ctx (set by the bus) is preferred over base.
func EventMiddleware(base observability.Logger, worker string) func(domoutbox.Handler) domoutbox.Handler {
	return func(next domoutbox.Handler) domoutbox.Handler {
		return func(ctx context.Context, e domoutbox.Event) error {
			sc := trace.SpanContextFromContext(ctx)
			attrs := map[string]string{"worker": worker}
			if e != nil {
				attrs["event"] = e.EventName()
			}
			ctx = WithEventContext(ctx, logctx.FromOr(ctx, base), sc.TraceID(), sc.SpanID(), attrs)
			return next(ctx, e)
		}
	}
}
