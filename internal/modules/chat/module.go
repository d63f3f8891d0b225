package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatrelay/internal/module"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/nfrund/chatrelay/internal/registry"
	"github.com/nfrund/chatrelay/internal/topics"
)

// IngressKey exposes the module's Ingress to other modules.
var IngressKey = registry.Key[*Ingress]("chat.ingress")

// ChatModule relays chat traffic between connections and the bus: it routes
// client submissions to the bus and runs the message, presence and room
// consumers.
type ChatModule struct {
	module.BaseModule
	ingress *Ingress
}

var _ module.Module = (*ChatModule)(nil)

// New creates the chat module. Its dependencies come from the registry.
func New() *ChatModule {
	return &ChatModule{}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// Register creates the ingress on the shared bus.
func (m *ChatModule) Register(reg *registry.Registry) error {
	bus, ok := registry.Get(reg, registry.BusKey)
	if !ok {
		return errors.New("chat: bus not registered")
	}
	m.ingress = NewIngress(bus)
	registry.Set(reg, IngressKey, m.ingress)
	return nil
}

// Boot whitelists the send action, subscribes the relays and mounts the
// members endpoint. Subscriptions last until ctx is canceled.
func (m *ChatModule) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	cfg := reg.Config()
	bus := registry.MustGet(reg, registry.BusKey)
	hub := registry.MustGet(reg, registry.HubKey)
	tracker := registry.MustGet(reg, registry.TrackerKey)
	users := registry.MustGet(reg, registry.UsersKey)
	rooms, _ := registry.Get(reg, registry.RoomsKey)

	if err := hub.Router().Handle(SendMessageAction, m.ingress.HandleSendMessage); err != nil {
		return fmt.Errorf("chat: whitelist %s: %w", SendMessageAction, err)
	}

	membership := NewMembership(tracker, users)
	subscriptions := []struct {
		topic   string
		group   string
		handler pubsub.Handler
	}{
		{topics.MessageEvents.Name(), cfg.MessageGroup, NewMessageRelay(hub).Handle},
		{topics.PresenceEvents.Name(), cfg.PresenceGroup, NewPresenceRelay(tracker, membership, hub).Handle},
		{topics.RoomEvents.Name(), cfg.RoomGroup, NewRoomRelay(rooms, hub).Handle},
	}
	for _, s := range subscriptions {
		if err := bus.Subscribe(ctx, s.topic, s.handler, pubsub.WithGroup(s.group)); err != nil {
			return fmt.Errorf("chat: subscribe %s: %w", s.topic, err)
		}
		slog.Info("Chat relay subscribed", "topic", s.topic, "group", s.group)
	}

	handler := NewHandler(membership)
	g.GET("/rooms/:roomId/members", handler.Members)
	return nil
}

// Shutdown is called on application termination. Subscriptions end with
// the Boot context and the bus is closed by the server.
func (m *ChatModule) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down ChatModule...")
	return nil
}
