package ws

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Ramim1310/chat/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Client is one live connection. Outbound frames go through the buffered
// send channel drained by writePump, so a slow peer never blocks a room
// broadcast.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte

	mu   sync.Mutex
	user *domain.User

	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// User returns the identity registered on this connection, or nil before
// user_connected.
func (c *Client) User() *domain.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Client) setUser(u *domain.User) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

// enqueue drops the frame when the client's buffer is full; the hub will
// tear the connection down on the next pump failure.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Send encodes and enqueues a single event for this connection.
func (c *Client) Send(eventType string, payload any) bool {
	frame, err := Encode(eventType, payload)
	if err != nil {
		log.Printf("ws: encode %s: %v", eventType, err)
		return false
	}
	return c.enqueue(frame)
}

// close shuts the send channel exactly once, releasing writePump.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with pings. One writePump goroutine per connection; gorilla allows
// a single concurrent writer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
