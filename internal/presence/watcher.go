package presence

import (
	"context"
	"log/slog"

	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/nfrund/chatrelay/internal/topics"
)

// Watcher turns connection lifecycle into presence events: a join when a
// connection opens and a leave when its close is observed. A connection that
// dies without the relay noticing leaves its user in the room.
type Watcher struct {
	publisher pubsub.Publisher
	logger    *slog.Logger
}

// NewWatcher returns a Watcher publishing on publisher.
func NewWatcher(publisher pubsub.Publisher) *Watcher {
	return &Watcher{
		publisher: publisher,
		logger:    slog.Default().With("component", "presence-watcher"),
	}
}

// Opened publishes a join for conn.
func (w *Watcher) Opened(ctx context.Context, conn domain.ConnectionContext) {
	w.publish(ctx, domain.PresenceJoin, conn)
}

// Closed publishes a leave for conn. It runs after the connection's request
// context is done, so the publish is detached from ctx's cancellation.
func (w *Watcher) Closed(ctx context.Context, conn domain.ConnectionContext) {
	w.publish(context.WithoutCancel(ctx), domain.PresenceLeave, conn)
}

// publish is fire-and-forget: a failure is logged and the connection carries on.
func (w *Watcher) publish(ctx context.Context, action domain.PresenceAction, conn domain.ConnectionContext) {
	event := domain.PresenceEvent{
		Action: action,
		UserID: conn.UserID(),
		RoomID: conn.RoomID(),
	}
	if err := pubsub.Publish(ctx, w.publisher, topics.PresenceEvents, event); err != nil {
		w.logger.Error("Failed to publish presence event",
			"action", action.String(),
			"user_id", conn.UserID(),
			"room_id", conn.RoomID(),
			"connection_id", conn.ConnectionID(),
			"error", err)
		return
	}
	w.logger.Debug("Published presence event",
		"action", action.String(),
		"user_id", conn.UserID(),
		"room_id", conn.RoomID(),
		"connection_id", conn.ConnectionID())
}
