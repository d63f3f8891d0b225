package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chatrelay/internal/auth"
	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/nfrund/chatrelay/internal/middleware"
	ws "github.com/nfrund/chatrelay/internal/websocket"
)

const testSecret = "hub-test-secret-0123456789abcdef"

// recordingLifecycle keeps every Opened and Closed call.
type recordingLifecycle struct {
	mu     sync.Mutex
	opened []domain.ConnectionContext
	closed []domain.ConnectionContext
}

func (r *recordingLifecycle) Opened(_ context.Context, conn domain.ConnectionContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, conn)
}

func (r *recordingLifecycle) Closed(_ context.Context, conn domain.ConnectionContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, conn)
}

func (r *recordingLifecycle) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.opened), len(r.closed)
}

// testFixture holds all the components needed for testing the hub.
type testFixture struct {
	hub       *ws.Hub
	lifecycle *recordingLifecycle
	validator *auth.Validator
	server    *httptest.Server
	cancel    context.CancelFunc
	stopped   chan struct{}
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	lifecycle := &recordingLifecycle{}
	hub := ws.NewHub(ws.WithLifecycle(lifecycle))
	validator := auth.NewValidator(testSecret)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	e := echo.New()
	e.GET("/ws", hub.Handler(), middleware.Handshake(validator))
	e.GET("/raw", hub.Handler())
	server := httptest.NewServer(e)

	f := &testFixture{
		hub:       hub,
		lifecycle: lifecycle,
		validator: validator,
		server:    server,
		cancel:    cancel,
		stopped:   stopped,
	}
	t.Cleanup(func() {
		cancel()
		<-stopped
		server.Close()
	})
	return f
}

func (f *testFixture) dial(t *testing.T, userID int64, username string, roomID int64) *gws.Conn {
	t.Helper()

	token, err := f.validator.Issue(auth.Identity{UserID: userID, Username: username}, time.Hour)
	require.NoError(t, err)

	before := f.hub.Connections(roomID)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=" + token + "&roomId=" + jsonNumber(roomID)
	conn, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return f.hub.Connections(roomID) == before+1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func readFrame(t *testing.T, conn *gws.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func assertNoFrame(t *testing.T, conn *gws.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "expected no frame")
}

func TestHub_BroadcastIsScopedToRoom(t *testing.T) {
	f := setupTestFixture(t)

	a := f.dial(t, 1, "alice", 7)
	b := f.dial(t, 2, "bob", 7)
	c := f.dial(t, 3, "carol", 8)

	require.NoError(t, f.hub.Broadcast(context.Background(), ws.NewNoticeFrame(7, "hello room 7")))

	for _, conn := range []*gws.Conn{a, b} {
		frame := readFrame(t, conn)
		assert.Equal(t, "/topic/chatroom-7", frame["channel"])
		assert.Equal(t, float64(7), frame["roomId"])
		assert.Equal(t, "notice", frame["kind"])
		assert.Equal(t, "hello room 7", frame["payload"])
	}
	assertNoFrame(t, c)
}

func TestHub_BroadcastKeepsOrder(t *testing.T) {
	f := setupTestFixture(t)
	conn := f.dial(t, 1, "alice", 7)

	for i := 0; i < 20; i++ {
		require.NoError(t, f.hub.Broadcast(context.Background(), ws.NewDeletionFrame(7, jsonNumber(int64(i)))))
	}
	for i := 0; i < 20; i++ {
		frame := readFrame(t, conn)
		assert.Equal(t, jsonNumber(int64(i)), frame["payload"])
	}
}

func TestHub_Lifecycle(t *testing.T) {
	f := setupTestFixture(t)

	conn := f.dial(t, 1, "alice", 7)
	opened, closed := f.lifecycle.counts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 0, closed)

	require.NoError(t, conn.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, "bye")))
	conn.Close()

	require.Eventually(t, func() bool {
		_, closed := f.lifecycle.counts()
		return closed == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, f.hub.Connections(7))

	f.lifecycle.mu.Lock()
	defer f.lifecycle.mu.Unlock()
	assert.Equal(t, f.lifecycle.opened[0].ConnectionID(), f.lifecycle.closed[0].ConnectionID())
	assert.Equal(t, int64(1), f.lifecycle.closed[0].UserID())
	assert.Equal(t, int64(7), f.lifecycle.closed[0].RoomID())
}

func TestHub_RoutesWhitelistedActions(t *testing.T) {
	f := setupTestFixture(t)

	type call struct {
		conn    domain.ConnectionContext
		payload string
	}
	calls := make(chan call, 4)
	require.NoError(t, f.hub.Router().Handle("chat.sendMessage", func(_ context.Context, conn domain.ConnectionContext, payload json.RawMessage) {
		calls <- call{conn: conn, payload: string(payload)}
	}))

	conn := f.dial(t, 1, "alice", 7)
	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"action":"admin.kick","payload":{}}`)))
	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"action":"chat.sendMessage","payload":{"content":"hi"}}`)))

	select {
	case got := <-calls:
		assert.Equal(t, int64(1), got.conn.UserID())
		assert.Equal(t, "alice", got.conn.Username())
		assert.Equal(t, int64(7), got.conn.RoomID())
		assert.JSONEq(t, `{"content":"hi"}`, got.payload)
	case <-time.After(2 * time.Second):
		t.Fatal("whitelisted action was not dispatched")
	}
	assert.Len(t, calls, 0)
}

func TestHub_RejectsUnauthenticated(t *testing.T) {
	f := setupTestFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http")

	_, resp, err := gws.DefaultDialer.Dial(url+"/ws?token=garbage&roomId=7", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The hub itself refuses a request that skipped the handshake.
	_, resp, err = gws.DefaultDialer.Dial(url+"/raw", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	opened, _ := f.lifecycle.counts()
	assert.Equal(t, 0, opened)
}

func TestHub_Shutdown(t *testing.T) {
	f := setupTestFixture(t)
	conn := f.dial(t, 1, "alice", 7)

	// The client must be reading to answer the server's close frame.
	readErr := make(chan error, 1)
	go func() {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, err := conn.ReadMessage()
		readErr <- err
	}()

	f.cancel()
	select {
	case <-f.stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not stop")
	}

	// Run waits for every handler, so Closed has already run.
	_, closed := f.lifecycle.counts()
	assert.Equal(t, 1, closed)

	err := <-readErr
	assert.True(t, gws.IsCloseError(err, gws.CloseNormalClosure), "unexpected read error: %v", err)

	assert.ErrorIs(t, f.hub.Broadcast(context.Background(), ws.NewNoticeFrame(7, "late")), ws.ErrHubClosed)
}
