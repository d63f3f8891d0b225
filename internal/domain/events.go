package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrUnknownAction is returned when marshalling an action that has no wire name.
var ErrUnknownAction = errors.New("unknown action")

var validate = validator.New()

// Actions are closed sets. Each type reserves its zero value for values read
// off the bus that match none of the known literals, so consumers can log and
// drop them instead of failing to decode the whole event.

// MessageAction is the action of a MessageEvent.
type MessageAction int

const (
	MessageUnknown MessageAction = iota
	MessageSend
	MessageDelete
)

// PresenceAction is the action of a PresenceEvent.
type PresenceAction int

const (
	PresenceUnknown PresenceAction = iota
	PresenceJoin
	PresenceLeave
)

// RoomAction is the action of a RoomEvent.
type RoomAction int

const (
	RoomUnknown RoomAction = iota
	RoomCreate
	RoomUpdate
	RoomDelete
)

var (
	messageActions  = []string{"unknown", "send", "delete"}
	presenceActions = []string{"unknown", "join", "leave"}
	roomActions     = []string{"unknown", "create", "update", "delete"}
)

func parseAction[A ~int](names []string, s string) A {
	s = strings.TrimSpace(s)
	for i := 1; i < len(names); i++ {
		if strings.EqualFold(names[i], s) {
			return A(i)
		}
	}
	return 0
}

func actionName[A ~int](names []string, a A) string {
	if a <= 0 || int(a) >= len(names) {
		return names[0]
	}
	return names[int(a)]
}

func marshalAction[A ~int](names []string, a A) ([]byte, error) {
	if a <= 0 || int(a) >= len(names) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}
	return []byte(names[int(a)]), nil
}

// ParseMessageAction maps a wire literal to a MessageAction, ignoring case.
func ParseMessageAction(s string) MessageAction { return parseAction[MessageAction](messageActions, s) }

func (a MessageAction) String() string                { return actionName(messageActions, a) }
func (a MessageAction) MarshalText() ([]byte, error)  { return marshalAction(messageActions, a) }
func (a *MessageAction) UnmarshalText(b []byte) error { *a = ParseMessageAction(string(b)); return nil }

// ParsePresenceAction maps a wire literal to a PresenceAction, ignoring case.
func ParsePresenceAction(s string) PresenceAction {
	return parseAction[PresenceAction](presenceActions, s)
}

func (a PresenceAction) String() string                { return actionName(presenceActions, a) }
func (a PresenceAction) MarshalText() ([]byte, error)  { return marshalAction(presenceActions, a) }
func (a *PresenceAction) UnmarshalText(b []byte) error { *a = ParsePresenceAction(string(b)); return nil }

// ParseRoomAction maps a wire literal to a RoomAction, ignoring case.
func ParseRoomAction(s string) RoomAction { return parseAction[RoomAction](roomActions, s) }

func (a RoomAction) String() string                { return actionName(roomActions, a) }
func (a RoomAction) MarshalText() ([]byte, error)  { return marshalAction(roomActions, a) }
func (a *RoomAction) UnmarshalText(b []byte) error { *a = ParseRoomAction(string(b)); return nil }

// ChatMessage is a single chat line. It is never edited once published;
// deletions travel as a separate MessageEvent referencing ID.
type ChatMessage struct {
	ID        string    `json:"id" validate:"required"`
	RoomID    int64     `json:"roomId" validate:"gt=0"`
	UserID    int64     `json:"userId" validate:"gt=0"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content" validate:"max=4000"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks a message built by ingress before it is published.
func (m ChatMessage) Validate() error {
	return validate.Struct(m)
}

// MessageEvent is the payload of the message-events topic.
type MessageEvent struct {
	Action  MessageAction `json:"action"`
	Message *ChatMessage  `json:"message"`
}

// Validate checks the structural invariants of the event. Delete events only
// need enough of the message to address it.
func (e MessageEvent) Validate() error {
	if e.Message == nil {
		return errors.New("message event without message")
	}
	if e.Message.RoomID <= 0 {
		return fmt.Errorf("message %q has no room", e.Message.ID)
	}
	if e.Action == MessageDelete && e.Message.ID == "" {
		return errors.New("delete event without message id")
	}
	return nil
}

// PresenceEvent is the payload of the user-presence-events topic.
type PresenceEvent struct {
	Action PresenceAction `json:"action"`
	UserID int64          `json:"userId" validate:"gt=0"`
	RoomID int64          `json:"roomId" validate:"gt=0"`
}

// Validate checks the structural invariants of the event.
func (e PresenceEvent) Validate() error {
	return validate.Struct(e)
}

// RoomEvent is the payload of the chatroom-events topic.
type RoomEvent struct {
	Action RoomAction `json:"action"`
	Room   Room       `json:"room"`
}

// Validate checks the structural invariants of the event.
func (e RoomEvent) Validate() error {
	return validate.Struct(e)
}
