package presence

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Tracker records which users are present in which room. Every method is a
// single set operation on the backing store, so concurrent relay instances
// sharing a store never observe a half-applied change.
type Tracker interface {
	// Add puts userID in roomID's member set. Adding a present user is a no-op.
	Add(ctx context.Context, roomID, userID int64) error
	// Remove takes userID out of roomID's member set. Removing an absent user
	// is a no-op.
	Remove(ctx context.Context, roomID, userID int64) error
	// Members returns roomID's members in ascending order. An unknown room
	// yields an empty, non-nil slice.
	Members(ctx context.Context, roomID int64) ([]int64, error)
}

// RoomKey is the store key holding roomID's member set.
func RoomKey(roomID int64) string {
	return fmt.Sprintf("chatroom:users:%d", roomID)
}

// MemoryTracker is a Tracker for a single relay instance.
type MemoryTracker struct {
	mu    sync.RWMutex
	rooms map[int64]map[int64]struct{}
}

var _ Tracker = (*MemoryTracker)(nil)

// NewMemoryTracker returns an empty in-process tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{rooms: make(map[int64]map[int64]struct{})}
}

func (t *MemoryTracker) Add(_ context.Context, roomID, userID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.rooms[roomID]
	if !ok {
		members = make(map[int64]struct{})
		t.rooms[roomID] = members
	}
	members[userID] = struct{}{}
	return nil
}

func (t *MemoryTracker) Remove(_ context.Context, roomID, userID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.rooms[roomID]
	if !ok {
		return nil
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(t.rooms, roomID)
	}
	return nil
}

func (t *MemoryTracker) Members(_ context.Context, roomID int64) ([]int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int64, 0, len(t.rooms[roomID]))
	for id := range t.rooms[roomID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
