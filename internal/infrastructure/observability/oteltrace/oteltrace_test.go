package oteltrace

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracer_RecordsSpansOnGlobalProvider(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := New("").Start(context.Background(), "UC.Purchase", attribute.String("item.name", "Coke"))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != "UC.Purchase" {
		t.Fatalf("unexpected span name %q", ended[0].Name())
	}
	if got := ended[0].InstrumentationScope().Name; got != defaultTracerName {
		t.Fatalf("unexpected tracer name %q", got)
	}
	var found bool
	for _, kv := range ended[0].Attributes() {
		if kv.Key == "item.name" && kv.Value.AsString() == "Coke" {
			found = true
		}
	}
	if !found {
		t.Fatal("span attribute item.name missing")
	}
}

func TestSetup_WithoutEndpointOnlyInstallsPropagation(t *testing.T) {
	shutdown, err := Setup(context.Background(), SDKOptions{ServiceName: "vending-machine"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	fields := otel.GetTextMapPropagator().Fields()
	if len(fields) == 0 {
		t.Fatal("expected a propagator to be installed")
	}
}
