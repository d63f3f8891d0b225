package registry

import (
	"testing"

	"github.com/nfrund/chatrelay/internal/collab"
	"github.com/nfrund/chatrelay/internal/config"
	"github.com/nfrund/chatrelay/internal/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	cfg := &config.Config{ServerAddr: ":0"}
	reg := New(cfg)
	assert.Same(t, cfg, reg.Config())

	_, ok := Get(reg, TrackerKey)
	assert.False(t, ok)
	assert.Panics(t, func() { MustGet(reg, TrackerKey) })

	tracker := presence.NewMemoryTracker()
	Set[presence.Tracker](reg, TrackerKey, tracker)

	got, ok := Get(reg, TrackerKey)
	require.True(t, ok)
	assert.Same(t, tracker, got)

	Set[collab.UserDirectory](reg, UsersKey, collab.LocalUserDirectory{})
	assert.Equal(t, collab.LocalUserDirectory{}, MustGet(reg, UsersKey))
}

func TestRegistry_TypeMismatch(t *testing.T) {
	reg := New(nil)
	Set(reg, Key[string]("shared.name"), "value")

	_, ok := Get(reg, Key[int]("shared.name"))
	assert.False(t, ok)
}
