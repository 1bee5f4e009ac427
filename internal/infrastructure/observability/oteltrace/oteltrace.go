package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "vending-machine"

type tracer struct{ t trace.Tracer }

// New returns a tracer backed by the global otel TracerProvider. Without an
// SDK provider installed the spans are non-recording, which keeps local runs cheap.
func New(name string) observability.Tracer {
	if name == "" {
		name = defaultTracerName
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
