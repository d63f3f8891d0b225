package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// ErrClosed is returned by operations on a closed bridge.
var ErrClosed = errors.New("pubsub: bridge closed")

// subscriberFactory returns the watermill subscriber serving a consumer group.
type subscriberFactory func(group string) (message.Subscriber, error)

// WatermillBridge implements Bus on top of a watermill publisher and one
// watermill subscriber per consumer group.
type WatermillBridge struct {
	pub    message.Publisher
	newSub subscriberFactory
	logger watermill.LoggerAdapter
	retry  middleware.Retry

	mu     sync.Mutex
	subs   map[string]message.Subscriber
	closed bool
}

// newRetry bounds how long a failing handler holds up its subscription: a
// few backed-off attempts, after which the message is given up on.
func newRetry(logger watermill.LoggerAdapter) middleware.Retry {
	return middleware.Retry{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          logger,
	}
}

const (
	// Metadata keys used to transfer our Message structure fields through watermill's message.
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

// NewWatermillBridge initializes an in-memory Pub/Sub system. GoChannel has no
// consumer groups: every subscription receives every message, which is the
// right behaviour for a single relay instance.
func NewWatermillBridge() *WatermillBridge {
	logger := watermill.NewStdLogger(false, false)
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		logger,
	)

	return &WatermillBridge{
		pub: goChannel,
		newSub: func(string) (message.Subscriber, error) {
			return goChannel, nil
		},
		logger: logger,
		retry:  newRetry(logger),
		subs:   make(map[string]message.Subscriber),
	}
}

// NewRedisStreamBridge initializes a Pub/Sub system on Redis Streams. Each
// consumer group gets its own watermill subscriber so relay instances sharing
// a group split the stream between them.
func NewRedisStreamBridge(client redis.UniversalClient) (*WatermillBridge, error) {
	logger := watermill.NewStdLogger(false, false)

	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client:     client,
		Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create redis stream publisher: %w", err)
	}

	return &WatermillBridge{
		pub: pub,
		newSub: func(group string) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        client,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: group,
			}, logger)
		},
		logger: logger,
		retry:  newRetry(logger),
		subs:   make(map[string]message.Subscriber),
	}, nil
}

// mapToWatermillMessage converts our pubsub.Message to a watermill message.
func mapToWatermillMessage(msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)

	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)

	return wmMsg
}

// mapToPubSubMessage converts a watermill message back to our internal pubsub.Message.
func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeyUserID && k != metaKeyTopic {
			metadata[k] = v
		}
	}

	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		UserID:   wmMsg.Metadata.Get(metaKeyUserID),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements the Publisher interface.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	wb.mu.Lock()
	closed := wb.closed
	wb.mu.Unlock()
	if closed {
		return ErrClosed
	}

	wmMsg := mapToWatermillMessage(msg)
	wmMsg.SetContext(ctx)
	return wb.pub.Publish(msg.Topic, wmMsg)
}

func (wb *WatermillBridge) subscriber(group string) (message.Subscriber, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if wb.closed {
		return nil, ErrClosed
	}
	if sub, ok := wb.subs[group]; ok {
		return sub, nil
	}
	sub, err := wb.newSub(group)
	if err != nil {
		return nil, fmt.Errorf("create subscriber for group %q: %w", group, err)
	}
	wb.subs[group] = sub
	return sub, nil
}

// Subscribe implements the Subscriber interface. A handler error is retried
// with backoff; once the retries are spent the message is logged and acked so
// later messages on the topic are not held behind it.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler, opts ...SubscribeOption) error {
	cfg := newSubscribeConfig(opts)

	sub, err := wb.subscriber(cfg.group)
	if err != nil {
		return err
	}

	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	handle := wb.retry.Middleware(func(wmMsg *message.Message) ([]*message.Message, error) {
		msg := mapToPubSubMessage(wmMsg)
		if msg.Topic == "" {
			msg.Topic = topic
		}
		return nil, handler(ctx, msg)
	})

	// Messages are handled sequentially so per-topic delivery order is kept.
	go func() {
		for wmMsg := range messages {
			wmMsg.SetContext(ctx)
			if _, err := handle(wmMsg); err != nil {
				slog.Error("Giving up on message", "topic", topic, "group", cfg.group, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		slog.Debug("Subscription message loop ended", "topic", topic, "group", cfg.group)
	}()

	return nil
}

// Close shuts down the publisher and every subscriber, which ends all
// subscription loops.
func (wb *WatermillBridge) Close() error {
	wb.mu.Lock()
	if wb.closed {
		wb.mu.Unlock()
		return nil
	}
	wb.closed = true
	subs := wb.subs
	wb.subs = nil
	wb.mu.Unlock()

	var errs []error
	if err := wb.pub.Close(); err != nil {
		errs = append(errs, err)
	}
	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
