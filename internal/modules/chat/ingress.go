package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/nfrund/chatrelay/internal/topics"
)

// SendMessageAction is the client action that submits a chat message.
const SendMessageAction = "chat.sendMessage"

var (
	// ErrInvalidConnection is returned for a submit without a usable ConnectionContext.
	ErrInvalidConnection = errors.New("connection context is incomplete")
	// ErrInvalidPayload is returned for a submit whose payload cannot become a message.
	ErrInvalidPayload = errors.New("invalid message payload")
)

// sendPayload is what a client may say about its message. Everything else
// comes from the connection and the server clock.
type sendPayload struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Ingress turns messages submitted over a connection into send events.
type Ingress struct {
	publisher pubsub.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewIngress creates an ingress publishing on publisher.
func NewIngress(publisher pubsub.Publisher) *Ingress {
	return &Ingress{
		publisher: publisher,
		now:       time.Now,
		logger:    slog.Default().With("component", "chat-ingress"),
	}
}

// Submit builds a ChatMessage from payload and publishes it as a send event.
// Room, user and sender come from conn whatever the payload says; the id is
// kept if the client chose one; the timestamp is always server time.
//
// The publish is fire-and-forget: a failure is logged and returned but never
// retried, and nothing waits for consumers.
func (in *Ingress) Submit(ctx context.Context, conn domain.ConnectionContext, payload json.RawMessage) error {
	logger := in.logger.With("connection_id", conn.ConnectionID())

	if !conn.Valid() {
		logger.Warn("Dropping message from incomplete connection context",
			"user_id", conn.UserID(), "room_id", conn.RoomID())
		return ErrInvalidConnection
	}

	var p sendPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		logger.Warn("Dropping undecodable message payload", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(p.Content) == "" {
		logger.Debug("Dropping empty message")
		return fmt.Errorf("%w: empty content", ErrInvalidPayload)
	}

	msg := domain.ChatMessage{
		ID:        p.ID,
		RoomID:    conn.RoomID(),
		UserID:    conn.UserID(),
		Sender:    conn.Username(),
		Content:   p.Content,
		Timestamp: in.now().UTC(),
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if err := msg.Validate(); err != nil {
		logger.Warn("Dropping invalid message", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	event := domain.MessageEvent{Action: domain.MessageSend, Message: &msg}
	if err := pubsub.Publish(ctx, in.publisher, topics.MessageEvents, event); err != nil {
		logger.Error("Failed to publish message", "message_id", msg.ID, "room_id", msg.RoomID, "error", err)
		return fmt.Errorf("publish message %s: %w", msg.ID, err)
	}

	logger.Debug("Published message", "message_id", msg.ID, "room_id", msg.RoomID)
	return nil
}

// HandleSendMessage adapts Submit to the websocket router. Submit has
// already logged any failure.
func (in *Ingress) HandleSendMessage(ctx context.Context, conn domain.ConnectionContext, payload json.RawMessage) {
	_ = in.Submit(ctx, conn, payload)
}
