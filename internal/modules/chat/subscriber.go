package chat

import (
	"context"
	"log/slog"

	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/nfrund/chatrelay/internal/topics"
	"github.com/nfrund/chatrelay/internal/websocket"
)

// Broadcaster delivers a frame to every connection bound to its room.
type Broadcaster interface {
	Broadcast(ctx context.Context, f websocket.Frame) error
}

// MessageRelay forwards message events to the connections of the room they
// belong to: sends to the message channel, deletions to the deletion channel.
type MessageRelay struct {
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewMessageRelay creates a relay broadcasting through broadcaster.
func NewMessageRelay(broadcaster Broadcaster) *MessageRelay {
	return &MessageRelay{
		broadcaster: broadcaster,
		logger:      slog.Default().With("component", "message-relay"),
	}
}

// Handle is the pubsub.Handler for the message-events topic. It never asks
// for a retry: a bad event stays bad and a lost broadcast cannot be
// recovered by trying again.
func (r *MessageRelay) Handle(ctx context.Context, msg pubsub.Message) error {
	event, err := pubsub.Decode(topics.MessageEvents, msg)
	if err != nil {
		r.logger.Warn("Dropping malformed message event", "error", err, "payload", string(msg.Payload))
		return nil
	}
	if err := event.Validate(); err != nil {
		r.logger.Warn("Dropping invalid message event", "action", event.Action.String(), "error", err)
		return nil
	}

	var frame websocket.Frame
	switch event.Action {
	case domain.MessageSend:
		frame = websocket.NewMessageFrame(*event.Message)
	case domain.MessageDelete:
		frame = websocket.NewDeletionFrame(event.Message.RoomID, event.Message.ID)
	default:
		r.logger.Warn("Dropping message event with unknown action",
			"message_id", event.Message.ID, "room_id", event.Message.RoomID)
		return nil
	}

	if err := r.broadcaster.Broadcast(ctx, frame); err != nil {
		r.logger.Error("Failed to broadcast message event",
			"action", event.Action.String(), "message_id", event.Message.ID, "room_id", event.Message.RoomID, "error", err)
		return nil
	}
	r.logger.Debug("Relayed message event",
		"action", event.Action.String(), "message_id", event.Message.ID, "room_id", event.Message.RoomID)
	return nil
}
