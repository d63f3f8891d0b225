package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/presence"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/nfrund/chatrelay/internal/topics"
	"github.com/nfrund/chatrelay/internal/websocket"
)

// PresenceRelay applies join and leave events to the tracker and broadcasts
// the room's resulting member list.
type PresenceRelay struct {
	tracker     presence.Tracker
	membership  *Membership
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewPresenceRelay creates a presence relay.
func NewPresenceRelay(tracker presence.Tracker, membership *Membership, broadcaster Broadcaster) *PresenceRelay {
	return &PresenceRelay{
		tracker:     tracker,
		membership:  membership,
		broadcaster: broadcaster,
		logger:      slog.Default().With("component", "presence-relay"),
	}
}

// Handle is the pubsub.Handler for the user-presence-events topic. An
// unreachable presence store is returned as an error so the bus retries the
// event a bounded number of times; both tracker operations are idempotent.
// Unknown actions are dropped without a broadcast.
func (r *PresenceRelay) Handle(ctx context.Context, msg pubsub.Message) error {
	event, err := pubsub.Decode(topics.PresenceEvents, msg)
	if err != nil {
		r.logger.Warn("Dropping malformed presence event", "error", err, "payload", string(msg.Payload))
		return nil
	}
	if err := event.Validate(); err != nil {
		r.logger.Warn("Dropping invalid presence event", "error", err)
		return nil
	}

	switch event.Action {
	case domain.PresenceJoin:
		err = r.tracker.Add(ctx, event.RoomID, event.UserID)
	case domain.PresenceLeave:
		err = r.tracker.Remove(ctx, event.RoomID, event.UserID)
	default:
		r.logger.Warn("Dropping presence event with unknown action",
			"user_id", event.UserID, "room_id", event.RoomID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply %s for user %d: %w", event.Action, event.UserID, err)
	}

	users, err := r.membership.Snapshot(ctx, event.RoomID)
	if err != nil {
		return err
	}

	if err := r.broadcaster.Broadcast(ctx, websocket.NewMembershipFrame(event.RoomID, users)); err != nil {
		r.logger.Error("Failed to broadcast membership", "room_id", event.RoomID, "error", err)
		return nil
	}
	r.logger.Debug("Broadcast membership",
		"action", event.Action.String(), "user_id", event.UserID, "room_id", event.RoomID, "members", len(users))
	return nil
}
