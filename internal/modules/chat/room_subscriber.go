package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nfrund/chatrelay/internal/collab"
	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/nfrund/chatrelay/internal/topics"
	"github.com/nfrund/chatrelay/internal/websocket"
)

var roomVerbs = map[domain.RoomAction]string{
	domain.RoomCreate: "created",
	domain.RoomUpdate: "updated",
	domain.RoomDelete: "deleted",
}

// RoomRelay tells a room's connections that the room was created, updated
// or deleted.
type RoomRelay struct {
	rooms       collab.RoomDirectory
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewRoomRelay creates a room relay. rooms may be nil, in which case events
// without a room name are announced by id.
func NewRoomRelay(rooms collab.RoomDirectory, broadcaster Broadcaster) *RoomRelay {
	return &RoomRelay{
		rooms:       rooms,
		broadcaster: broadcaster,
		logger:      slog.Default().With("component", "room-relay"),
	}
}

// Handle is the pubsub.Handler for the chatroom-events topic.
func (r *RoomRelay) Handle(ctx context.Context, msg pubsub.Message) error {
	event, err := pubsub.Decode(topics.RoomEvents, msg)
	if err != nil {
		r.logger.Warn("Dropping malformed room event", "error", err, "payload", string(msg.Payload))
		return nil
	}

	verb, ok := roomVerbs[event.Action]
	if !ok {
		r.logger.Warn("Dropping room event with unknown action", "room_id", event.Room.ID)
		return nil
	}
	if err := event.Validate(); err != nil {
		r.logger.Warn("Dropping invalid room event", "action", event.Action.String(), "error", err)
		return nil
	}

	notice := fmt.Sprintf("Chat room %s: %s", verb, r.roomName(ctx, event.Room))
	if err := r.broadcaster.Broadcast(ctx, websocket.NewNoticeFrame(event.Room.ID, notice)); err != nil {
		r.logger.Error("Failed to broadcast room notice", "room_id", event.Room.ID, "error", err)
		return nil
	}
	r.logger.Debug("Relayed room event", "action", event.Action.String(), "room_id", event.Room.ID)
	return nil
}

// roomName prefers the name in the event, then the room directory, then the id.
func (r *RoomRelay) roomName(ctx context.Context, room domain.Room) string {
	if room.Name != "" {
		return room.Name
	}
	if r.rooms != nil {
		found, err := r.rooms.Room(ctx, room.ID)
		if err == nil && found.Name != "" {
			return found.Name
		}
		if err != nil {
			r.logger.Warn("Room name lookup failed", "room_id", room.ID, "error", err)
		}
	}
	return strconv.FormatInt(room.ID, 10)
}
