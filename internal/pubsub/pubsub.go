package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
// It is intentionally simple to act as a wrapper for raw data.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g., "message-events").
	Topic string
	// UserID identifies the user who initiated the message, if any.
	UserID string
	// Payload contains the raw message data, JSON for every topic the relay uses.
	Payload []byte
	// Metadata carries transport-independent context such as trace headers.
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
// A nil return acknowledges the message. A non-nil return asks the transport
// to retry it, so handlers return nil for messages that can never succeed
// (malformed payloads, unknown actions) and an error only for transient faults.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the Pub/Sub system.
// Publish returns once the transport has accepted the message; it never waits
// for consumers.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the Pub/Sub system.
type Subscriber interface {
	// Subscribe registers handler for topic and returns once the subscription is
	// live. Messages are handled one at a time, in the order the transport
	// delivers them, until ctx is canceled or the subscriber is closed.
	Subscribe(ctx context.Context, topic string, handler Handler, opts ...SubscribeOption) error
	Close() error
}

// Bus is a transport that can both publish and subscribe.
type Bus interface {
	Publisher
	Subscriber
}

// SubscribeOption configures a single subscription.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	group string
}

// WithGroup joins the subscription to a named consumer group. Subscribers in
// the same group share the topic's messages; each message reaches one of them.
// Without a group every subscriber receives every message.
func WithGroup(name string) SubscribeOption {
	return func(c *subscribeConfig) {
		c.group = name
	}
}

func newSubscribeConfig(opts []SubscribeOption) subscribeConfig {
	var cfg subscribeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
