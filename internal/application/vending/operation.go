package vending

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	statusOK       = "OK"
)

// operation carries the span, RED metrics and the closing log line of one use case run.
type operation struct {
	m       *Machine
	ctx     context.Context
	useCase string
	span    trace.Span
	logger  observability.Logger
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

func (m *Machine) begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *operation) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := m.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	return ctx, &operation{
		m:       m,
		ctx:     ctx,
		useCase: useCase,
		span:    span,
		logger:  logctx.FromOr(ctx, m.log).With(observability.F("use_case", useCase)),
		start:   time.Now(),
		outcome: outcomeSuccess,
		status:  statusOK,
	}
}

// reject marks the run as failed with a machine-readable status.
func (op *operation) reject(status string) {
	op.outcome, op.status = outcomeError, status
}

func (op *operation) with(fields ...observability.Field) {
	op.fields = append(op.fields, fields...)
}

func (op *operation) event(name string, attrs ...attribute.KeyValue) {
	if op.span != nil {
		op.span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func (op *operation) end(err error) {
	if op.span != nil {
		if err != nil {
			op.span.RecordError(err)
			op.span.SetStatus(codes.Error, op.status)
		} else {
			op.span.SetStatus(codes.Ok, op.status)
		}
		op.span.End()
	}

	latency := time.Since(op.start).Seconds()
	op.m.reqCounter.Add(1,
		observability.L("use_case", op.useCase),
		observability.L("outcome", op.outcome),
	)
	op.m.durHistogram.Observe(latency,
		observability.L("use_case", op.useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", op.outcome),
		observability.F("status", op.status),
		observability.F("latency_seconds", latency),
	}
	fields = append(fields, op.fields...)
	if sc := trace.SpanContextFromContext(op.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	op.logger.Info("use_case_done", fields...)
}

// publish hands an event to the bus. A failure is logged and counted but never
// changes the outcome of the operation that produced the event.
func (m *Machine) publish(ctx context.Context, e outbox.Event) {
	if m.publisher == nil || e == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	err := m.publisher.Publish(pubCtx, e)
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	} else if pubCtx.Err() != nil {
		outcome = "canceled"
		err = pubCtx.Err()
	}
	cancel()

	m.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", outcome),
	)
	m.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
	)

	if err != nil {
		logctx.FromOr(ctx, m.log).Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}
