package pubsub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestSetupOTel_Disabled(t *testing.T) {
	tracer, cleanup, err := SetupOTel(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tracer)
	cleanup()

	_, span := tracer.Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func newRecordingTracer() (trace.Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return tp.Tracer("test"), recorder
}

func TestWithTracing_PropagatesContext(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	bus := WithTracing(NewWatermillBridge(), tracer)
	defer bus.Close()

	ctx := context.Background()
	got := &collector{}
	require.NoError(t, bus.Subscribe(ctx, "message-events", got.handle))

	original := map[string]string{"request_id": "r1"}
	require.NoError(t, bus.Publish(ctx, Message{Topic: "message-events", Payload: []byte(`{}`), Metadata: original}))

	require.Eventually(t, func() bool { return len(recorder.Ended()) == 2 }, 2*time.Second, 10*time.Millisecond)

	assert.NotContains(t, original, "traceparent", "caller metadata must not be mutated")
	msg := got.snapshot()[0]
	assert.NotEmpty(t, msg.Metadata["traceparent"])
	assert.Equal(t, "r1", msg.Metadata["request_id"])

	var producer, consumer sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		switch s.SpanKind() {
		case trace.SpanKindProducer:
			producer = s
		case trace.SpanKindConsumer:
			consumer = s
		}
	}
	require.NotNil(t, producer)
	require.NotNil(t, consumer)
	assert.Equal(t, "pubsub.publish.message-events", producer.Name())
	assert.Equal(t, "pubsub.process.message-events", consumer.Name())
	assert.Equal(t, producer.SpanContext().TraceID(), consumer.SpanContext().TraceID())
	assert.Equal(t, producer.SpanContext().SpanID(), consumer.Parent().SpanID())
}

func TestWithTracing_RecordsHandlerError(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	bus := WithTracing(NewWatermillBridge(), tracer)
	defer bus.Close()

	ctx := context.Background()
	failed := false
	require.NoError(t, bus.Subscribe(ctx, "chatroom-events", func(context.Context, Message) error {
		if !failed {
			failed = true
			return errors.New("boom")
		}
		return nil
	}))
	require.NoError(t, bus.Publish(ctx, Message{Topic: "chatroom-events", Payload: []byte(`{}`)}))

	require.Eventually(t, func() bool {
		for _, s := range recorder.Ended() {
			if s.SpanKind() == trace.SpanKindConsumer && s.Status().Code == codes.Error {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}
