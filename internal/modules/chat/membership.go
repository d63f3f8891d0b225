package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/chatrelay/internal/collab"
	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/presence"
)

// Membership resolves a room's present users into display records.
type Membership struct {
	tracker presence.Tracker
	users   collab.UserDirectory
	logger  *slog.Logger
}

// NewMembership creates a Membership over tracker and users.
func NewMembership(tracker presence.Tracker, users collab.UserDirectory) *Membership {
	return &Membership{
		tracker: tracker,
		users:   users,
		logger:  slog.Default().With("component", "chat-membership"),
	}
}

// Snapshot returns the users present in roomID, ordered by id. A tracker
// failure is returned. A directory failure is not: the users it could not
// resolve are left out of the list.
func (m *Membership) Snapshot(ctx context.Context, roomID int64) ([]domain.User, error) {
	ids, err := m.tracker.Members(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("membership of room %d: %w", roomID, err)
	}
	if len(ids) == 0 {
		return []domain.User{}, nil
	}

	users, err := m.users.Users(ctx, ids)
	if err != nil {
		m.logger.Warn("User directory unavailable, omitting unresolved members",
			"room_id", roomID, "members", len(ids), "error", err)
		return []domain.User{}, nil
	}
	if len(users) < len(ids) {
		m.logger.Debug("Some members could not be resolved",
			"room_id", roomID, "members", len(ids), "resolved", len(users))
	}
	return users, nil
}
