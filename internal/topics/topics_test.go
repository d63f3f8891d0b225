package topics

import (
	"testing"

	"github.com/nfrund/chatrelay/internal/topicmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogueRegistered(t *testing.T) {
	tests := []struct {
		name   string
		module string
		scope  topicmgr.TopicScope
		fields []string
	}{
		{MessageEvents.Name(), "chat", topicmgr.ScopeModule, []string{"action", "message"}},
		{PresenceEvents.Name(), "", topicmgr.ScopeFramework, []string{"action", "userId", "roomId"}},
		{RoomEvents.Name(), "rooms", topicmgr.ScopeModule, []string{"action", "room"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topic, err := topicmgr.Default().Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.module, topic.Module())
			assert.Equal(t, tt.scope, topic.Scope())
			assert.Equal(t, tt.fields, topic.Metadata()["payload_fields"])
			assert.NotEmpty(t, topic.Example())
		})
	}
}

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "message-events", MessageEvents.Name())
	assert.Equal(t, "user-presence-events", PresenceEvents.Name())
	assert.Equal(t, "chatroom-events", RoomEvents.Name())
}
