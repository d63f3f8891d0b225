package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// ConnectNATS dials a NATS server with reconnects that never give up.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	logger := slog.Default().With("component", "nats")
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return nc, nil
}

// NATSBridge implements Bus on core NATS. Consumer groups map to queue
// groups. Core NATS does not redeliver, so a handler error is only logged.
type NATSBridge struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewNATSBridge wraps an established connection. The bridge owns nc and
// drains it on Close.
func NewNATSBridge(nc *nats.Conn) *NATSBridge {
	return &NATSBridge{
		nc:     nc,
		logger: slog.Default().With("component", "nats_bridge"),
	}
}

// Publish implements the Publisher interface.
func (nb *NATSBridge) Publish(ctx context.Context, msg Message) error {
	m := nats.NewMsg(msg.Topic)
	m.Data = msg.Payload
	for k, v := range msg.Metadata {
		m.Header.Set(k, v)
	}
	if msg.UserID != "" {
		m.Header.Set(metaKeyUserID, msg.UserID)
	}
	if err := nb.nc.PublishMsg(m); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.Topic, err)
	}
	return nil
}

// Subscribe implements the Subscriber interface. NATS runs the callbacks of
// one subscription on a single goroutine, so messages are handled in order.
func (nb *NATSBridge) Subscribe(ctx context.Context, topic string, handler Handler, opts ...SubscribeOption) error {
	cfg := newSubscribeConfig(opts)

	cb := func(m *nats.Msg) {
		msg := Message{
			Topic:    m.Subject,
			Payload:  m.Data,
			Metadata: make(map[string]string, len(m.Header)),
		}
		for k := range m.Header {
			if k == metaKeyUserID {
				msg.UserID = m.Header.Get(k)
				continue
			}
			msg.Metadata[k] = m.Header.Get(k)
		}
		if err := handler(ctx, msg); err != nil {
			nb.logger.Error("Failed to handle message", "topic", topic, "group", cfg.group, "error", err)
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if cfg.group != "" {
		sub, err = nb.nc.QueueSubscribe(topic, cfg.group, cb)
	} else {
		sub, err = nb.nc.Subscribe(topic, cb)
	}
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	// Make sure the server has registered the interest before returning.
	if err := nb.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flush subscription to %s: %w", topic, err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()

	return nil
}

// Close drains every subscription and then closes the connection.
func (nb *NATSBridge) Close() error {
	if nb.nc.IsClosed() {
		return nil
	}
	return nb.nc.Drain()
}
