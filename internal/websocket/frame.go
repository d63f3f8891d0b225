package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/nfrund/chatrelay/internal/domain"
)

// Kind tells a client how to read a frame's payload.
type Kind string

const (
	KindMessage Kind = "message" // payload is a ChatMessage
	KindNotice  Kind = "notice"  // payload is a string
	KindDelete  Kind = "delete"  // payload is the deleted message id
	KindMembers Kind = "members" // payload is the room's user list
)

// Frame is one server-to-client text message.
type Frame struct {
	Channel string `json:"channel"`
	RoomID  int64  `json:"roomId"`
	Kind    Kind   `json:"kind"`
	Payload any    `json:"payload"`
}

// MessageChannel carries a room's messages and notices.
func MessageChannel(roomID int64) string {
	return fmt.Sprintf("/topic/chatroom-%d", roomID)
}

// DeletionChannel carries the ids of a room's deleted messages.
func DeletionChannel(roomID int64) string {
	return fmt.Sprintf("/topic/chatroom-%d-deletes", roomID)
}

// MembershipChannel carries a room's member list.
func MembershipChannel(roomID int64) string {
	return fmt.Sprintf("/topic/chatroom-%d-users", roomID)
}

func NewMessageFrame(msg domain.ChatMessage) Frame {
	return Frame{Channel: MessageChannel(msg.RoomID), RoomID: msg.RoomID, Kind: KindMessage, Payload: msg}
}

func NewNoticeFrame(roomID int64, text string) Frame {
	return Frame{Channel: MessageChannel(roomID), RoomID: roomID, Kind: KindNotice, Payload: text}
}

func NewDeletionFrame(roomID int64, messageID string) Frame {
	return Frame{Channel: DeletionChannel(roomID), RoomID: roomID, Kind: KindDelete, Payload: messageID}
}

// NewMembershipFrame wraps the full member list; a nil list is sent as [].
func NewMembershipFrame(roomID int64, users []domain.User) Frame {
	if users == nil {
		users = []domain.User{}
	}
	return Frame{Channel: MembershipChannel(roomID), RoomID: roomID, Kind: KindMembers, Payload: users}
}

// InboundMessage is one client-to-server text message.
type InboundMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}
