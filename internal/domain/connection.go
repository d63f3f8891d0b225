package domain

import "github.com/google/uuid"

// ConnectionContext is the identity bound to a connection at handshake. It is
// a value: fields are unexported and there are no setters, so a connection's
// privileges cannot change after it is accepted.
type ConnectionContext struct {
	connectionID string
	userID       int64
	username     string
	roomID       int64
}

// NewConnectionContext returns a context with a fresh connection id.
func NewConnectionContext(userID int64, username string, roomID int64) ConnectionContext {
	return ConnectionContext{
		connectionID: uuid.NewString(),
		userID:       userID,
		username:     username,
		roomID:       roomID,
	}
}

func (c ConnectionContext) ConnectionID() string { return c.connectionID }
func (c ConnectionContext) UserID() int64        { return c.userID }
func (c ConnectionContext) Username() string     { return c.username }
func (c ConnectionContext) RoomID() int64        { return c.roomID }

// Valid reports whether the context carries the fields every operation needs.
func (c ConnectionContext) Valid() bool {
	return c.connectionID != "" && c.userID > 0 && c.roomID > 0
}
