package pubsub

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// tracedBus adds a span around every publish and every handled message. The
// publishing span context travels in Message.Metadata, so a consumer's span
// is a child of the producer's whatever the transport.
type tracedBus struct {
	Bus
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// WithTracing wraps bus so its traffic is traced with tracer.
func WithTracing(bus Bus, tracer trace.Tracer) Bus {
	return &tracedBus{
		Bus:        bus,
		tracer:     tracer,
		propagator: propagation.TraceContext{},
	}
}

func spanAttributes(operation string, msg Message) []attribute.KeyValue {
	preview := string(msg.Payload)
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return []attribute.KeyValue{
		attribute.String("messaging.system", "chatrelay"),
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.destination", msg.Topic),
		attribute.String("user.id", msg.UserID),
		attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
		attribute.String("messaging.message_payload_preview", preview),
	}
}

// Publish starts a producer span and injects its context into the metadata.
func (b *tracedBus) Publish(ctx context.Context, msg Message) error {
	ctx, span := b.tracer.Start(ctx, fmt.Sprintf("pubsub.publish.%s", msg.Topic),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(spanAttributes("publish", msg)...),
	)
	defer span.End()

	metadata := make(map[string]string, len(msg.Metadata)+2)
	for k, v := range msg.Metadata {
		metadata[k] = v
	}
	b.propagator.Inject(ctx, propagation.MapCarrier(metadata))
	msg.Metadata = metadata

	if err := b.Bus.Publish(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Subscribe wraps handler in a consumer span linked to the producer.
func (b *tracedBus) Subscribe(ctx context.Context, topic string, handler Handler, opts ...SubscribeOption) error {
	traced := func(ctx context.Context, msg Message) error {
		ctx = b.propagator.Extract(ctx, propagation.MapCarrier(msg.Metadata))
		ctx, span := b.tracer.Start(ctx, fmt.Sprintf("pubsub.process.%s", topic),
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(spanAttributes("process", msg)...),
		)
		defer span.End()

		if err := handler(ctx, msg); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		return nil
	}
	return b.Bus.Subscribe(ctx, topic, traced, opts...)
}
