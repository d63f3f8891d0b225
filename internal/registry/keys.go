package registry

import (
	"github.com/nfrund/chatrelay/internal/collab"
	"github.com/nfrund/chatrelay/internal/presence"
	"github.com/nfrund/chatrelay/internal/pubsub"
	"github.com/nfrund/chatrelay/internal/websocket"
)

// Keys of the services the server provides to every module.
var (
	BusKey     = Key[pubsub.Bus]("core.bus")
	HubKey     = Key[*websocket.Hub]("core.hub")
	TrackerKey = Key[presence.Tracker]("presence.tracker")
	UsersKey   = Key[collab.UserDirectory]("collab.users")
	RoomsKey   = Key[collab.RoomDirectory]("collab.rooms")
)
