package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/chatrelay/internal/collab"
	"github.com/nfrund/chatrelay/internal/config"
	"github.com/nfrund/chatrelay/internal/presence"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/redis/go-redis/v9"
)

// backends are the external services the relay talks to.
type backends struct {
	bus     pubsub.Bus
	tracker presence.Tracker
	users   collab.UserDirectory
	rooms   collab.RoomDirectory

	closers []func()
}

// openBackends connects the bus, presence store and collaborators selected by
// cfg. On error everything opened so far is closed again.
func openBackends(ctx context.Context, cfg *config.Config) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			for i := len(b.closers) - 1; i >= 0; i-- {
				b.closers[i]()
			}
		}
	}()

	var rdb *redis.Client
	if cfg.BusDriver == config.BusRedis || cfg.PresenceStore == config.StoreRedis {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
		}
	}

	bus, err := openBus(cfg, rdb)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, func() {
		if err := bus.Close(); err != nil {
			slog.Error("Failed to close bus", "error", err)
		}
	})

	tracer, cleanup, err := pubsub.SetupOTel(ctx, pubsub.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.TracingServiceName,
		ZipkinURL:   cfg.TracingZipkinURL,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	b.closers = append(b.closers, cleanup)
	b.bus = pubsub.WithTracing(bus, tracer)

	if cfg.PresenceStore == config.StoreRedis {
		b.tracker = presence.NewRedisTracker(rdb)
	} else {
		b.tracker = presence.NewMemoryTracker()
	}

	collabOpts := []collab.Option{collab.WithTimeout(cfg.CollaboratorTimeout)}
	if cfg.UserServiceURL != "" {
		b.users = collab.NewUserDirectory(cfg.UserServiceURL, collabOpts...)
	} else {
		slog.Warn("USER_SERVICE_URL not set, members are listed by id")
		b.users = collab.LocalUserDirectory{}
	}
	if cfg.ChatServiceURL != "" {
		b.rooms = collab.NewRoomDirectory(cfg.ChatServiceURL, collabOpts...)
	}

	return b, nil
}

func openBus(cfg *config.Config, rdb *redis.Client) (pubsub.Bus, error) {
	switch cfg.BusDriver {
	case config.BusRedis:
		bus, err := pubsub.NewRedisStreamBridge(rdb)
		if err != nil {
			return nil, fmt.Errorf("open redis stream bus: %w", err)
		}
		return bus, nil
	case config.BusNATS:
		nc, err := pubsub.ConnectNATS(cfg.NATSURL, cfg.TracingServiceName)
		if err != nil {
			return nil, err
		}
		return pubsub.NewNATSBridge(nc), nil
	default:
		return pubsub.NewWatermillBridge(), nil
	}
}
