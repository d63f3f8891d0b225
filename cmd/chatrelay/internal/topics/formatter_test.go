package topics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nfrund/chatrelay/internal/topicmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	manager, err := Initialize()
	require.NoError(t, err)

	names := make([]string, 0)
	for _, topic := range manager.List() {
		names = append(names, topic.Name())
	}
	assert.Subset(t, names, []string{"message-events", "user-presence-events", "chatroom-events"})
}

func TestDisplayTopicsTable(t *testing.T) {
	manager, err := Initialize()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, DisplayTopicsTable(&buf, manager.List()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, buf.String(), "user-presence-events")
	// Framework topics have no module.
	for _, line := range lines {
		if strings.HasPrefix(line, "user-presence-events") {
			assert.Contains(t, line, " - ")
		}
	}
}

func TestDisplayTopicsJSON(t *testing.T) {
	topic, err := topicmgr.Default().Lookup("message-events")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, DisplayTopicsJSON(&buf, []topicmgr.Topic{topic}))

	var out struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "message-events", out.Topics[0].Name)
	assert.Equal(t, "chat", out.Topics[0].Module)
	assert.Equal(t, "message", out.Topics[0].Metadata["event_type"])
}

func TestDisplayTopicDetails(t *testing.T) {
	topic, err := topicmgr.Default().Lookup("chatroom-events")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, DisplayTopicDetails(&buf, topic, "table"))
	out := buf.String()
	assert.Contains(t, out, "Name:        chatroom-events")
	assert.Contains(t, out, "Module:      rooms")

	// Metadata keys are printed in order.
	assert.Less(t, strings.Index(out, "event_type"), strings.Index(out, "payload_fields"))
	assert.Less(t, strings.Index(out, "payload_fields"), strings.Index(out, "valid_actions"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "...", truncateString("abcdef", 3))
}
