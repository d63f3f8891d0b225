package websocket

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/nfrund/chatrelay/internal/domain"
)

const (
	writeTimeout = 10 * time.Second
	readLimit    = 64 << 10
	sendBuffer   = 256
)

// Client is one accepted connection and the room it is bound to.
type Client struct {
	info domain.ConnectionContext
	conn *websocket.Conn
	hub  *Hub

	// out is the receive side of send, fixed at construction so the write
	// pump drains and exits even when Close ran before it started.
	out <-chan []byte

	mu   sync.RWMutex
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, info domain.ConnectionContext) *Client {
	send := make(chan []byte, sendBuffer)
	return &Client{
		info: info,
		conn: conn,
		hub:  hub,
		out:  send,
		send: send,
	}
}

// Info returns the connection's immutable attributes.
func (c *Client) Info() domain.ConnectionContext {
	return c.info
}

// SendMessage queues msg for the write pump. A full buffer drops the
// message; a closed client ignores it.
func (c *Client) SendMessage(msg []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// If the channel is nil, it means the client is disconnected.
	if c.send == nil {
		return
	}

	select {
	case c.send <- msg:
	default:
		c.hub.logger.Warn("Client send channel full, dropping message",
			"connection_id", c.info.ConnectionID(), "room_id", c.info.RoomID())
	}
}

// Close stops the write pump. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// readPump hands every client frame to the router until the connection ends.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(readLimit)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				c.hub.logger.Info("WebSocket closed normally by client", "connection_id", c.info.ConnectionID())
			case errors.Is(err, io.EOF) || errors.Is(err, context.Canceled):
				c.hub.logger.Debug("WebSocket connection ended", "connection_id", c.info.ConnectionID())
			default:
				c.hub.logger.Warn("WebSocket read error", "connection_id", c.info.ConnectionID(), "error", err)
			}
			return
		}
		c.hub.router.Dispatch(ctx, c.info, data)
	}
}

// writePump pumps messages from the client's send channel to the WebSocket connection.
func (c *Client) writePump() {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for message := range c.out {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			c.hub.logger.Debug("WebSocket write error", "connection_id", c.info.ConnectionID(), "error", err)
			return
		}
	}
}
