package client

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InitTracing installs a process-wide TracerProvider sampling at
// sampleRatio. There is no OTLP exporter wired by default: this module
// has no server-side collector endpoint to configure, so spans are
// produced and ended but not exported anywhere unless a caller
// registers an exporter on the returned provider before traffic
// starts. The returned func shuts the provider down.
func InitTracing(sampleRatio float64) (trace.Tracer, func(context.Context) error) {
	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sampler))
	otel.SetTracerProvider(tp)
	return tp.Tracer("github.com/ValerySidorin/zkdispatch"), tp.Shutdown
}

// otelTracer adapts an OpenTelemetry trace.Tracer to the narrow
// traceTracer interface dispatcher.go consumes, so every Submit call
// carries a span.
type otelTracer struct {
	t trace.Tracer
}

func newOtelTracer(t trace.Tracer) *otelTracer {
	if t == nil {
		t = otel.Tracer("github.com/ValerySidorin/zkdispatch")
	}
	return &otelTracer{t: t}
}

func (o *otelTracer) StartSubmitSpan(ctx context.Context, opName string) (context.Context, func(error)) {
	ctx, span := o.t.Start(ctx, "zkdispatch.Submit",
		trace.WithAttributes(attribute.String("zk.opcode", opName)))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
