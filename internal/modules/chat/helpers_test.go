package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/presence"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/nfrund/chatrelay/internal/websocket"
)

// mockPublisher implements pubsub.Publisher for testing
type mockPublisher struct {
	mu       sync.Mutex
	messages []pubsub.Message
	err      error
}

func (m *mockPublisher) Publish(_ context.Context, msg pubsub.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) getMessages() []pubsub.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pubsub.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// recordingBroadcaster keeps every frame it is asked to broadcast.
type recordingBroadcaster struct {
	mu     sync.Mutex
	frames []websocket.Frame
	err    error
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, f websocket.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.frames = append(b.frames, f)
	return nil
}

func (b *recordingBroadcaster) getFrames() []websocket.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]websocket.Frame, len(b.frames))
	copy(out, b.frames)
	return out
}

func newTestTracker() *presence.MemoryTracker {
	return presence.NewMemoryTracker()
}

// failingTracker fails every operation, like a presence store that is down.
type failingTracker struct{}

var errStoreDown = errors.New("store down")

func (failingTracker) Add(context.Context, int64, int64) error    { return errStoreDown }
func (failingTracker) Remove(context.Context, int64, int64) error { return errStoreDown }
func (failingTracker) Members(context.Context, int64) ([]int64, error) {
	return nil, errStoreDown
}

// stubUsers resolves from a fixed map, or fails when err is set.
type stubUsers struct {
	names map[int64]string
	err   error
}

func (s stubUsers) Users(_ context.Context, ids []int64) ([]domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	users := []domain.User{}
	for _, id := range ids {
		if name, ok := s.names[id]; ok {
			users = append(users, domain.User{ID: id, Username: name})
		}
	}
	return users, nil
}

// stubRooms resolves from a fixed map.
type stubRooms map[int64]string

func (s stubRooms) Room(_ context.Context, id int64) (domain.Room, error) {
	name, ok := s[id]
	if !ok {
		return domain.Room{}, errors.New("collab: not found")
	}
	return domain.Room{ID: id, Name: name}, nil
}
