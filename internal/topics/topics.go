package topics

import (
	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/nfrund/chatrelay/internal/topicmgr"
)

var (
	// MessageEvents carries chat message sends and deletions. The ingress
	// handler publishes sends; other services publish deletions.
	MessageEvents = pubsub.NewEvent[domain.MessageEvent](topicmgr.TopicConfig{
		Name:        "message-events",
		Module:      "chat",
		Scope:       topicmgr.ScopeModule,
		Description: "Chat message sent to or deleted from a room",
		Example:     `{"action":"send","message":{"id":"3f1c...","roomId":7,"userId":1,"sender":"alice","content":"hi","timestamp":"2024-01-01T00:00:00Z"}}`,
		Metadata: map[string]interface{}{
			"event_type":    "message",
			"valid_actions": []string{"send", "delete"},
		},
	})

	// PresenceEvents is published when a user joins or leaves a room.
	PresenceEvents = pubsub.NewEvent[domain.PresenceEvent](topicmgr.TopicConfig{
		Name:        "user-presence-events",
		Scope:       topicmgr.ScopeFramework,
		Description: "User joined or left a chat room",
		Example:     `{"action":"join","userId":1,"roomId":7}`,
		Metadata: map[string]interface{}{
			"event_type":    "presence_change",
			"valid_actions": []string{"join", "leave"},
		},
	})

	// RoomEvents is published by the chat service when a room changes.
	RoomEvents = pubsub.NewEvent[domain.RoomEvent](topicmgr.TopicConfig{
		Name:        "chatroom-events",
		Module:      "rooms",
		Scope:       topicmgr.ScopeModule,
		Description: "Chat room created, updated or deleted",
		Example:     `{"action":"create","room":{"id":7,"name":"general"}}`,
		Metadata: map[string]interface{}{
			"event_type":    "room_lifecycle",
			"valid_actions": []string{"create", "update", "delete"},
		},
	})
)
