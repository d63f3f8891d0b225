package testutils

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/nfrund/chatrelay/internal/auth"
)

// Frame is a server frame as a client sees it.
type Frame struct {
	Channel string          `json:"channel"`
	RoomID  int64           `json:"roomId"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Token mints a one hour token for the user.
func Token(t *testing.T, secret string, userID int64, username string) string {
	t.Helper()
	token, err := auth.NewValidator(secret).Issue(auth.Identity{UserID: userID, Username: username}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// RoomURL is the upgrade URL for roomID on the server at baseURL.
func RoomURL(baseURL, token string, roomID int64) string {
	return fmt.Sprintf("ws%s/ws?token=%s&roomId=%d", strings.TrimPrefix(baseURL, "http"), token, roomID)
}

// Dial connects the user to roomID. The connection is closed when the test
// ends.
func Dial(t *testing.T, baseURL, secret string, userID int64, username string, roomID int64) *gws.Conn {
	t.Helper()
	conn, _, err := gws.DefaultDialer.Dial(RoomURL(baseURL, Token(t, secret, userID, username), roomID), nil)
	if err != nil {
		t.Fatalf("dial room %d as %s: %v", roomID, username, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// AwaitFrame reads frames until one satisfies match, discarding the others.
func AwaitFrame(t *testing.T, conn *gws.Conn, what string, match func(Frame) bool) Frame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("set read deadline: %v", err)
		}
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		if match(f) {
			return f
		}
	}
}

// AwaitMembers waits for a membership frame whose payload is the JSON want.
func AwaitMembers(t *testing.T, conn *gws.Conn, want string) {
	t.Helper()
	var wantUsers any
	if err := json.Unmarshal([]byte(want), &wantUsers); err != nil {
		t.Fatalf("bad expected members %s: %v", want, err)
	}
	AwaitFrame(t, conn, "members "+want, func(f Frame) bool {
		if f.Kind != "members" {
			return false
		}
		var got any
		if err := json.Unmarshal(f.Payload, &got); err != nil {
			return false
		}
		return fmt.Sprint(got) == fmt.Sprint(wantUsers)
	})
}
