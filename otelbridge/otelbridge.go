// Package otelbridge mirrors kiroku events onto an OpenTelemetry tracer.
// Each captured event becomes one zero-duration span carrying the event's
// properties as attributes, so existing OTLP pipelines can see LLM traffic
// without a second exporter path.
package otelbridge

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/ashita-ai/kiroku/otelbridge"

// Sink re-emits each captured event as a span. It implements kiroku.Sink.
type Sink struct {
	tracer trace.Tracer
}

// New creates a Sink on the given provider. Pass otel.GetTracerProvider()
// to use the process-global provider.
func New(tp trace.TracerProvider) *Sink {
	return &Sink{tracer: tp.Tracer(tracerName)}
}

// Capture starts and immediately ends a span named after the event, with
// the subject id and every scalar property attached as attributes.
func (s *Sink) Capture(subjectID, event string, properties map[string]any) {
	ts := time.Now()
	_, span := s.tracer.Start(context.Background(), event,
		trace.WithTimestamp(ts),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(attribute.String("kiroku.subject_id", subjectID))
	span.SetAttributes(attrs(properties)...)
	span.End(trace.WithTimestamp(ts))
}

// attrs flattens a property map into OTel attributes. Non-scalar values
// never appear here — event assembly serializes them to strings first.
func attrs(properties map[string]any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(properties))
	for k, v := range properties {
		key := "kiroku." + k
		switch val := v.(type) {
		case string:
			out = append(out, attribute.String(key, val))
		case bool:
			out = append(out, attribute.Bool(key, val))
		case int:
			out = append(out, attribute.Int(key, val))
		case int64:
			out = append(out, attribute.Int64(key, val))
		case float64:
			out = append(out, attribute.Float64(key, val))
		default:
			out = append(out, attribute.String(key, fmt.Sprintf("%v", val)))
		}
	}
	return out
}

// Shutdown flushes and stops a provider created by Init.
type Shutdown func(ctx context.Context) error

// Init stands up an OTLP/HTTP trace exporter and returns a provider ready
// to hand to New, plus a shutdown function for graceful termination. If
// endpoint is empty a no-op provider is returned.
func Init(ctx context.Context, endpoint, serviceName, version string, insecure bool) (trace.TracerProvider, Shutdown, error) {
	if endpoint == "" {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("otelbridge: create resource: %w", err)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("otelbridge: create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp, tp.Shutdown, nil
}
