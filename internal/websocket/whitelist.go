package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/nfrund/chatrelay/internal/domain"
)

var (
	// ErrActionAlreadyExists is returned when trying to add a duplicate action
	ErrActionAlreadyExists = errors.New("action already exists in whitelist")
	// ErrInvalidAction is returned when an empty action or a nil handler is provided
	ErrInvalidAction = errors.New("action cannot be empty")
)

// InboundHandler processes the payload of a whitelisted client action.
type InboundHandler func(ctx context.Context, conn domain.ConnectionContext, payload json.RawMessage)

// Router holds the actions clients may send and the handler of each.
// Anything else a client sends is logged and dropped.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]InboundHandler
	logger   *slog.Logger
}

// NewRouter returns a router with no allowed actions.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]InboundHandler),
		logger:   slog.Default().With("component", "ws-router"),
	}
}

// IsAllowed checks if an action is in the whitelist in a thread-safe manner
func (r *Router) IsAllowed(action string) bool {
	if action == "" {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.handlers[action]
	return ok
}

// Handle whitelists action and routes it to h.
// Returns an error if the action is empty or already exists
func (r *Router) Handle(action string, h InboundHandler) error {
	if action == "" || h == nil {
		r.logger.Warn("attempted to add empty action to whitelist")
		return ErrInvalidAction
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[action]; ok {
		r.logger.Debug("action already in whitelist", "action", action)
		return ErrActionAlreadyExists
	}

	r.handlers[action] = h
	r.logger.Info("added action to whitelist", "action", action)
	return nil
}

// Dispatch decodes a raw client frame and runs the handler of its action.
// It reports whether a handler ran.
func (r *Router) Dispatch(ctx context.Context, conn domain.ConnectionContext, raw []byte) bool {
	var in InboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		r.logger.Warn("Dropping malformed client frame", "connection_id", conn.ConnectionID(), "error", err)
		return false
	}

	r.mu.RLock()
	h, ok := r.handlers[in.Action]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("Dropping frame with action not in whitelist",
			"connection_id", conn.ConnectionID(), "action", in.Action)
		return false
	}

	h(ctx, conn, in.Payload)
	return true
}
