package ws

import (
	"log"
	"sync"

	"github.com/Ramim1310/chat/internal/domain"
)

// Hub is the presence registry and room router. It is constructed once per
// server instance and injected wherever live delivery is needed; all state
// lives behind its mutex.
//
// Presence allows one live connection per identity: a reconnect overwrites
// the previous mapping (last registration wins).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // connection id -> client
	byUser  map[int64]string              // identity id -> connection id
	rooms   map[string]map[string]struct{} // room id -> connection ids
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		byUser:  make(map[int64]string),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// Add tracks a freshly upgraded connection. No presence is recorded until
// the connection announces an identity via RegisterPresence.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

// RegisterPresence binds the connection to an identity and broadcasts the
// updated online set to everyone.
func (h *Hub) RegisterPresence(c *Client, user *domain.User) {
	c.setUser(user)
	h.mu.Lock()
	h.byUser[user.ID] = c.ID
	h.mu.Unlock()
	h.broadcastActiveUsers()
}

// Remove drops the connection from every map. The identity mapping is only
// cleared when it still points at this connection, so a stale connection's
// teardown cannot evict a newer registration for the same identity.
// Returns true when the online set changed.
func (h *Hub) Remove(c *Client) bool {
	h.mu.Lock()
	delete(h.clients, c.ID)
	for room, members := range h.rooms {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	presenceChanged := false
	if u := c.User(); u != nil {
		if h.byUser[u.ID] == c.ID {
			delete(h.byUser, u.ID)
			presenceChanged = true
		}
	}
	h.mu.Unlock()

	c.close()
	if presenceChanged {
		h.broadcastActiveUsers()
	}
	return presenceChanged
}

// Join subscribes the connection to a room. Idempotent; there is no leave,
// membership lasts for the connection's lifetime.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]struct{})
	}
	h.rooms[room][c.ID] = struct{}{}
}

// BroadcastRoom delivers one event to every connection subscribed to the
// room, skipping excludeConnID when non-empty.
func (h *Hub) BroadcastRoom(room, eventType string, payload any, excludeConnID string) {
	frame, err := Encode(eventType, payload)
	if err != nil {
		log.Printf("ws: encode %s: %v", eventType, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[room] {
		if connID == excludeConnID {
			continue
		}
		if c, ok := h.clients[connID]; ok {
			if !c.enqueue(frame) {
				log.Printf("ws: dropping %s for %s, send buffer full", eventType, connID)
			}
		}
	}
}

// BroadcastAll delivers one event to every connection.
func (h *Hub) BroadcastAll(eventType string, payload any) {
	frame, err := Encode(eventType, payload)
	if err != nil {
		log.Printf("ws: encode %s: %v", eventType, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if !c.enqueue(frame) {
			log.Printf("ws: dropping %s for %s, send buffer full", eventType, c.ID)
		}
	}
}

// SendToConn delivers one event to a single connection. Reports whether the
// connection was found and the frame enqueued. The enqueue happens under
// the read lock: Remove deletes the client from the map under the write
// lock and closes its send channel only afterwards, so a successful lookup
// here implies the channel is still open.
func (h *Hub) SendToConn(connID, eventType string, payload any) bool {
	frame, err := Encode(eventType, payload)
	if err != nil {
		log.Printf("ws: encode %s: %v", eventType, err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	return c.enqueue(frame)
}

// SendToUser delivers one event to the identity's live connection, if any.
func (h *Hub) SendToUser(userID int64, eventType string, payload any) bool {
	connID, ok := h.ConnIDForUser(userID)
	if !ok {
		return false
	}
	return h.SendToConn(connID, eventType, payload)
}

// ConnIDForUser looks up the live connection for an identity.
func (h *Hub) ConnIDForUser(userID int64) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	connID, ok := h.byUser[userID]
	return connID, ok
}

// ActiveUsers returns a snapshot of every identity currently online.
func (h *Hub) ActiveUsers() []*domain.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]*domain.User, 0, len(h.byUser))
	for _, connID := range h.byUser {
		if c, ok := h.clients[connID]; ok {
			if u := c.User(); u != nil {
				users = append(users, u.Snapshot())
			}
		}
	}
	return users
}

// broadcastActiveUsers pushes the full online snapshot to every connection.
// O(n) per presence change; fine at this scale, revisit before sharding.
func (h *Hub) broadcastActiveUsers() {
	h.BroadcastAll(EventActiveUsers, h.ActiveUsers())
}
