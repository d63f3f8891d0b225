package presence

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisTracker keeps each room's members in a Redis set so every relay
// instance sees the same membership.
type RedisTracker struct {
	client redis.UniversalClient
	logger *slog.Logger
}

var _ Tracker = (*RedisTracker)(nil)

// NewRedisTracker returns a tracker backed by client.
func NewRedisTracker(client redis.UniversalClient) *RedisTracker {
	return &RedisTracker{
		client: client,
		logger: slog.Default().With("component", "presence-tracker"),
	}
}

func (t *RedisTracker) Add(ctx context.Context, roomID, userID int64) error {
	if err := t.client.SAdd(ctx, RoomKey(roomID), strconv.FormatInt(userID, 10)).Err(); err != nil {
		return fmt.Errorf("add user %d to room %d: %w", userID, roomID, err)
	}
	return nil
}

func (t *RedisTracker) Remove(ctx context.Context, roomID, userID int64) error {
	if err := t.client.SRem(ctx, RoomKey(roomID), strconv.FormatInt(userID, 10)).Err(); err != nil {
		return fmt.Errorf("remove user %d from room %d: %w", userID, roomID, err)
	}
	return nil
}

// Members reads the room's set. Entries that are not decimal ids were not
// written by a tracker and are skipped.
func (t *RedisTracker) Members(ctx context.Context, roomID int64) ([]int64, error) {
	raw, err := t.client.SMembers(ctx, RoomKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list members of room %d: %w", roomID, err)
	}

	ids := make([]int64, 0, len(raw))
	for _, member := range raw {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			t.logger.Warn("Skipping malformed presence entry", "room_id", roomID, "member", member)
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
