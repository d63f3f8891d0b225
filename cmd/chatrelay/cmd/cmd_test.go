package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/nfrund/chatrelay/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args after putting every flag back to
// its default.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	listOutputFormat, listModuleFilter, listScopeFilter = "table", "", ""
	getOutputFormat = "table"
	tokenUserID, tokenUsername, tokenTTL, tokenSecret = 0, "", time.Hour, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "chatrelay v"+version+"\n", out)
}

func TestToken(t *testing.T) {
	const secret = "cli-test-secret-0123456789"

	out, err := run(t, "token", "--user-id", "42", "--username", "alice", "--ttl", "5m", "--secret", secret)
	require.NoError(t, err)

	id, err := auth.NewValidator(secret).Identity(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: 42, Username: "alice"}, id)
}

func TestToken_Errors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "token", "--user-id", "1", "--username", "alice")
	assert.ErrorContains(t, err, "no signing secret")

	_, err = run(t, "token", "--username", "alice", "--secret", "s")
	assert.ErrorContains(t, err, "--user-id")

	_, err = run(t, "token", "--user-id", "1", "--secret", "s")
	assert.ErrorContains(t, err, "--username")
}

func TestTopicsList(t *testing.T) {
	out, err := run(t, "topics", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "message-events")
	assert.Contains(t, out, "user-presence-events")
	assert.Contains(t, out, "chatroom-events")

	out, err = run(t, "topics", "list", "--scope", "framework")
	require.NoError(t, err)
	assert.Contains(t, out, "user-presence-events")
	assert.NotContains(t, out, "message-events")

	out, err = run(t, "topics", "list", "--module", "chat", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"count": 1`)
	assert.Contains(t, out, `"name": "message-events"`)

	out, err = run(t, "topics", "list", "--module", "billing")
	require.NoError(t, err)
	assert.Equal(t, "No topics found matching: module 'billing'\n", out)

	_, err = run(t, "topics", "list", "--scope", "global")
	assert.ErrorContains(t, err, "invalid scope")

	_, err = run(t, "topics", "list", "--format", "yaml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestTopicsGet(t *testing.T) {
	out, err := run(t, "topics", "get", "user-presence-events")
	require.NoError(t, err)
	assert.Contains(t, out, "Scope:       framework")
	assert.Contains(t, out, "valid_actions: [join leave]")

	_, err = run(t, "topics", "get", "nope")
	assert.ErrorContains(t, err, "topic 'nope' not found")
}
