// Package telemetry provides opt-in OpenTelemetry span instrumentation for
// pool task execution, following the pattern in abiolaogu-MinIO's
// internal/tracing package: a named tracer obtained from an injected (or
// locally built) TracerProvider, one span per unit of work, attributes
// attached with attribute.String/attribute.Int.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dailypips/parallel-programming-mipt-2014/workpool"

// Tracer wraps an otel trace.Tracer scoped to one pool component.
type Tracer struct {
	t trace.Tracer
}

var (
	defaultOnce     sync.Once
	defaultProvider *sdktrace.TracerProvider
)

// fallbackProvider lazily builds a local SDK TracerProvider with no
// exporter registered, so spans are created and sampled like any real
// trace but simply have nowhere configured to go until WithTracerProvider
// supplies one. This is the provider New falls back to when the caller
// doesn't inject one, rather than relying on whatever the process may or
// may not have registered globally.
func fallbackProvider() *sdktrace.TracerProvider {
	defaultOnce.Do(func() {
		defaultProvider = sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	})
	return defaultProvider
}

// New returns a Tracer backed by the given provider. A nil provider falls
// back to a local SDK-backed provider built by fallbackProvider.
func New(provider trace.TracerProvider) *Tracer {
	if provider == nil {
		provider = fallbackProvider()
	}
	return &Tracer{t: provider.Tracer(tracerName)}
}

// StartTask opens a span for one submitted task, identified by its queue
// strategy name and, for priority queues, its priority.
func (tr *Tracer) StartTask(ctx context.Context, strategy string, priority int, hasPriority bool) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("workpool.strategy", strategy)}
	if hasPriority {
		attrs = append(attrs, attribute.Int("workpool.priority", priority))
	}
	return tr.t.Start(ctx, "workpool.task", trace.WithAttributes(attrs...))
}

// RecordOutcome annotates a span with how the task finished, mirroring how
// Future distinguishes value / void / error completion.
func RecordOutcome(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("workpool.failed", true))
	}
	span.End()
}
