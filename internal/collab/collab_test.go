package collab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPUserDirectory_Users(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/users/byIds", r.URL.Path)
		assert.Equal(t, "1,2,3", r.URL.Query().Get("ids"))

		// Out of order, with an id that was not asked for and no record for 3.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 2, "username": "bob"},
			{"id": 1, "username": "alice"},
			{"id": 9, "username": "mallory"},
		})
	}))
	defer srv.Close()

	dir := NewUserDirectory(srv.URL + "/")
	users, err := dir.Users(context.Background(), []int64{3, 1, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, []domain.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, users)
	assert.Equal(t, int32(1), requests.Load())
}

func TestHTTPUserDirectory_NoIDs(t *testing.T) {
	dir := NewUserDirectory("http://127.0.0.1:1")
	users, err := dir.Users(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestHTTPUserDirectory_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewUserDirectory(srv.URL).Users(context.Background(), []int64{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "database unavailable")
}

func TestHTTPUserDirectory_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewUserDirectory(srv.URL, WithTimeout(20*time.Millisecond)).Users(context.Background(), []int64{1})
	require.Error(t, err)
}

func TestLocalUserDirectory(t *testing.T) {
	users, err := LocalUserDirectory{}.Users(context.Background(), []int64{5, 2, 5})
	require.NoError(t, err)
	assert.Equal(t, []domain.User{{ID: 2, Username: "2"}, {ID: 5, Username: "5"}}, users)
}

func TestHTTPRoomDirectory_Room(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chatrooms/7":
			w.Write([]byte(`{"id":7,"roomName":"general","description":"ignored"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := NewRoomDirectory(srv.URL, WithHTTPClient(srv.Client()))

	room, err := dir.Room(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.Room{ID: 7, Name: "general"}, room)

	_, err = dir.Room(context.Background(), 8)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestHTTPRoomDirectory_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewRoomDirectory(srv.URL).Room(context.Background(), 7)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestWithTimeout_LeavesSharedClientAlone(t *testing.T) {
	transport := &http.Transport{}
	shared := &http.Client{Transport: transport, Timeout: 30 * time.Second}

	e := newEndpoint("http://users.local/", []Option{WithHTTPClient(shared), WithTimeout(time.Second)})

	assert.Equal(t, 30*time.Second, shared.Timeout)
	assert.Equal(t, time.Second, e.client.Timeout)
	assert.Same(t, transport, e.client.Transport)
	assert.Equal(t, "http://users.local", e.baseURL)
}
