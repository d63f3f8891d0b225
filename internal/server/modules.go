package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatrelay/internal/config"
	"github.com/nfrund/chatrelay/internal/module"
	"github.com/nfrund/chatrelay/internal/registry"
	"github.com/nfrund/chatrelay/internal/websocket"
)

// registerCoreServices puts the shared services into the registry before any
// module registers. The room directory is only set when a chat service is
// configured.
func registerCoreServices(reg *registry.Registry, cfg *config.Config, b *backends, hub *websocket.Hub) {
	registry.Set(reg, registry.BusKey, b.bus)
	registry.Set(reg, registry.HubKey, hub)
	registry.Set(reg, registry.TrackerKey, b.tracker)
	registry.Set(reg, registry.UsersKey, b.users)
	if b.rooms != nil {
		registry.Set(reg, registry.RoomsKey, b.rooms)
	}
	slog.Info("Core services registered",
		"bus", cfg.BusDriver,
		"presence_store", cfg.PresenceStore,
		"user_service", cfg.UserServiceURL != "",
		"chat_service", cfg.ChatServiceURL != "",
	)
}

// bootModules runs the two startup phases: every module registers, then
// every module boots.
func bootModules(ctx context.Context, modules []module.Module, g *echo.Group, reg *registry.Registry) error {
	for _, m := range modules {
		if err := m.Register(reg); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}
	for _, m := range modules {
		if err := m.Boot(ctx, g, reg); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
		slog.Info("Module booted", "module", m.Name())
	}
	return nil
}
