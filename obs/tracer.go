package obs

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Attrs is a convenience alias for span attribute maps.
type Attrs map[string]any

// Span wraps an OTel trace.Span with a simplified API, grounded on the
// teacher framework's o11y.Span.
type Span struct {
	span trace.Span
}

// End finishes the span.
func (s Span) End() { s.span.End() }

// SetAttributes adds key-value attributes to the span.
func (s Span) SetAttributes(attrs Attrs) { s.span.SetAttributes(attrsToOTel(attrs)...) }

// RecordError records err on the span without changing its status.
func (s Span) RecordError(err error) {
	if err != nil {
		s.span.RecordError(err)
	}
}

// SetError marks the span as failed with msg.
func (s Span) SetError(msg string) { s.span.SetStatus(otelcodes.Error, msg) }

var tracer = otel.Tracer("github.com/waypoint-ai/convomcts")

// StartSpan starts a new span named name with the given attributes. Callers
// that never configure an OTel SDK get OTel's default no-op tracer, so
// tracing is always safe to call and costs nothing when unconfigured.
func StartSpan(ctx context.Context, name string, attrs Attrs) (context.Context, Span) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrsToOTel(attrs)...))
	return ctx, Span{span: span}
}

// NewTracerProvider builds an SDK tracer provider exporting spans to exp and
// installs it as the global provider used by StartSpan. Returns a shutdown
// function to flush pending spans on exit.
func NewTracerProvider(exp sdktrace.SpanExporter) (shutdown func(context.Context) error) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer("github.com/waypoint-ai/convomcts")
	return tp.Shutdown
}

func attrsToOTel(attrs Attrs) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			kvs = append(kvs, attribute.String(k, val))
		case int:
			kvs = append(kvs, attribute.Int(k, val))
		case int64:
			kvs = append(kvs, attribute.Int64(k, val))
		case float64:
			kvs = append(kvs, attribute.Float64(k, val))
		case bool:
			kvs = append(kvs, attribute.Bool(k, val))
		}
	}
	return kvs
}
