package topics

import (
	"fmt"
	"io"
	"log"
	"log/slog"

	relaytopics "github.com/nfrund/chatrelay/internal/topics"
	"github.com/nfrund/chatrelay/internal/topicmgr"
)

// Initialize quiets logging so only command output reaches the terminal and
// returns the manager holding the relay's topics.
func Initialize() (*topicmgr.Manager, error) {
	log.SetOutput(io.Discard)
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	manager := topicmgr.Default()
	for _, name := range []string{
		relaytopics.MessageEvents.Name(),
		relaytopics.PresenceEvents.Name(),
		relaytopics.RoomEvents.Name(),
	} {
		if _, ok := manager.Get(name); !ok {
			return nil, fmt.Errorf("topic %q is not registered", name)
		}
	}
	return manager, nil
}
