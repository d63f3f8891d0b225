package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/middleware"
)

// ErrHubClosed is returned by Broadcast once the hub has shut down.
var ErrHubClosed = errors.New("websocket: hub closed")

// Lifecycle observes connections entering and leaving the hub.
type Lifecycle interface {
	// Opened runs once the connection is registered and can receive frames.
	Opened(ctx context.Context, conn domain.ConnectionContext)
	// Closed runs once the connection is unregistered.
	Closed(ctx context.Context, conn domain.ConnectionContext)
}

type nopLifecycle struct{}

func (nopLifecycle) Opened(context.Context, domain.ConnectionContext) {}
func (nopLifecycle) Closed(context.Context, domain.ConnectionContext) {}

type roomFrame struct {
	roomID  int64
	payload []byte
}

// Hub owns every accepted connection, grouped by room. A single goroutine
// (Run) registers, unregisters and fans frames out, so a frame reaches the
// clients of a room in the order Broadcast was called.
type Hub struct {
	router          *Router
	lifecycle       Lifecycle
	originPatterns  []string
	skipOriginCheck bool
	logger          *slog.Logger

	// rooms is written only by Run; the lock lets other goroutines read it.
	mu     sync.RWMutex
	rooms  map[int64]map[*Client]struct{}
	closed bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan roomFrame
	done       chan struct{}

	// conns counts handlers still serving a connection.
	conns sync.WaitGroup
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithRouter sets the router for client frames.
func WithRouter(r *Router) HubOption {
	return func(h *Hub) {
		h.router = r
	}
}

// WithLifecycle sets the observer of connection open and close.
func WithLifecycle(l Lifecycle) HubOption {
	return func(h *Hub) {
		h.lifecycle = l
	}
}

// WithOriginPatterns sets the origins allowed to connect besides the
// server's own host. A "*" pattern disables the check.
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) {
		h.originPatterns = patterns
		h.skipOriginCheck = slices.Contains(patterns, "*")
	}
}

// NewHub creates a hub. Call Run to start it.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		router:     NewRouter(),
		lifecycle:  nopLifecycle{},
		logger:     slog.Default().With("component", "ws-hub"),
		rooms:      make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomFrame, sendBuffer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the hub's client action router.
func (h *Hub) Router() *Router {
	return h.router
}

// Run serves registrations and broadcasts until ctx is done. It then closes
// every connection and returns once their handlers, including the Closed
// lifecycle hook, have finished.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			roomID := client.info.RoomID()
			h.mu.Lock()
			if h.rooms[roomID] == nil {
				h.rooms[roomID] = make(map[*Client]struct{})
			}
			h.rooms[roomID][client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Client registered",
				"connection_id", client.info.ConnectionID(),
				"user_id", client.info.UserID(),
				"room_id", roomID)

		case client := <-h.unregister:
			roomID := client.info.RoomID()
			h.mu.Lock()
			if clients, ok := h.rooms[roomID]; ok {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.rooms, roomID)
				}
			}
			h.mu.Unlock()
			client.Close()
			h.logger.Info("Client unregistered",
				"connection_id", client.info.ConnectionID(),
				"user_id", client.info.UserID(),
				"room_id", roomID)

		case frame := <-h.broadcast:
			h.mu.RLock()
			for client := range h.rooms[frame.roomID] {
				client.SendMessage(frame.payload)
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	h.closed = true
	close(h.done)
	count := 0
	for _, clients := range h.rooms {
		for client := range clients {
			client.Close()
			count++
		}
	}
	h.rooms = make(map[int64]map[*Client]struct{})
	h.mu.Unlock()

	h.logger.Info("WebSocket hub stopping", "open_connections", count)
	h.conns.Wait()
	h.logger.Info("WebSocket hub stopped")
}

// acquire reserves a connection slot; it fails once the hub is shut down.
func (h *Hub) acquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns.Add(1)
	return true
}

// Broadcast sends f to every connection bound to f.RoomID. It returns once
// the hub has queued the frame; connections that cannot keep up drop it.
func (h *Hub) Broadcast(ctx context.Context, f Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode frame for %s: %w", f.Channel, err)
	}

	select {
	case h.broadcast <- roomFrame{roomID: f.RoomID, payload: payload}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connections returns the number of connections bound to roomID.
func (h *Hub) Connections(roomID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Handler upgrades a request the handshake middleware has authenticated and
// serves the connection until it closes.
func (h *Hub) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		info, ok := middleware.ConnectionFrom(c)
		if !ok {
			h.logger.Error("Upgrade request reached the hub without a connection context")
			return c.String(http.StatusUnauthorized, "Unauthorized")
		}
		if !h.acquire() {
			return c.String(http.StatusServiceUnavailable, "Server is shutting down")
		}
		defer h.conns.Done()

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			OriginPatterns:     h.originPatterns,
			InsecureSkipVerify: h.skipOriginCheck,
		})
		if err != nil {
			// Accept has already written the error response.
			h.logger.Warn("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}

		ctx := c.Request().Context()
		client := newClient(h, conn, info)

		select {
		case h.register <- client:
		case <-h.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return nil
		}
		h.lifecycle.Opened(ctx, info)

		go client.writePump()
		client.readPump(ctx)

		select {
		case h.unregister <- client:
		case <-h.done:
			client.Close()
		}
		h.lifecycle.Closed(ctx, info)
		return nil
	}
}
