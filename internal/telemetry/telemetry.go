package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/JakeFAU/summary-relay"

// Tracer opens spans around webhook forwards.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer from tp, falling back to the global provider.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(tracerName)}
}

// StartForwardSpan starts the span covering one webhook forward.
func (t *Tracer) StartForwardSpan(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "relay.forward",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("relay.session_id", sessionID),
		),
	)
}

// EndForwardSpan records the forward result and ends the span.
// A zero statusCode means no response was received.
func (t *Tracer) EndForwardSpan(span trace.Span, statusCode int, outcome string, err error) {
	if statusCode != 0 {
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
	span.SetAttributes(attribute.String("relay.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
}

// TraceID returns the hex trace ID carried by ctx, or "" when there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
