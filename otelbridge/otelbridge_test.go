package otelbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingSink(t *testing.T) (*Sink, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return New(tp), rec
}

func TestCaptureEmitsSpan(t *testing.T) {
	sink, rec := newRecordingSink(t)

	sink.Capture("user-1", "generation_event", map[string]any{
		"trace_id":     "t-1",
		"model":        "gpt-4o",
		"latency":      0.42,
		"is_error":     false,
		"input_tokens": 12,
	})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "generation_event", span.Name())

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		got[kv.Key] = kv.Value
	}
	assert.Equal(t, "user-1", got["kiroku.subject_id"].AsString())
	assert.Equal(t, "t-1", got["kiroku.trace_id"].AsString())
	assert.Equal(t, "gpt-4o", got["kiroku.model"].AsString())
	assert.Equal(t, 0.42, got["kiroku.latency"].AsFloat64())
	assert.Equal(t, false, got["kiroku.is_error"].AsBool())
	assert.Equal(t, int64(12), got["kiroku.input_tokens"].AsInt64())
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	tp, shutdown, err := Init(context.Background(), "", "kiroku-test", "dev", false)
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, shutdown(context.Background()))
}
