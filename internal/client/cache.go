package client

import (
	"sync"
	"time"

	"github.com/Ramim1310/chat/internal/domain"
)

// Client-side message statuses. sending and error exist only before an
// entry is reconciled with its server-confirmed counterpart.
const (
	StatusSending = "sending"
	StatusSent    = domain.MessageStatusSent
	StatusSeen    = domain.MessageStatusSeen
	StatusError   = "error"
)

// DefaultSendTimeout bounds how long an optimistic entry may stay in
// sending before it is flipped to error.
const DefaultSendTimeout = 15 * time.Second

// Entry is one message in the reconciliation cache. ID is zero until the
// server confirms; TempID is the client correlation key and survives
// reconciliation so later events can still match the entry.
type Entry struct {
	TempID     string
	ID         int64
	Room       string
	AuthorID   int64
	AuthorName string
	Content    string
	Status     string
	Timestamp  time.Time
	SeenAt     *time.Time
}

// Cache merges locally-originated optimistic messages with
// server-confirmed state, per room. An entry matches by server id or by
// tempId, which keeps at most one visible copy of any message no matter
// in which order the ack and the broadcast echo arrive. Safe for
// concurrent use; the live-channel reader runs on its own goroutine.
type Cache struct {
	mu     sync.Mutex
	selfID int64
	rooms  map[string][]*Entry

	sendTimeout time.Duration
	timers      map[string]*time.Timer
}

func NewCache(selfID int64, sendTimeout time.Duration) *Cache {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Cache{
		selfID:      selfID,
		rooms:       make(map[string][]*Entry),
		sendTimeout: sendTimeout,
		timers:      make(map[string]*time.Timer),
	}
}

// Prime replaces the room's server-confirmed entries with the fetched
// history, keeping any unconfirmed local entries that the history does not
// cover yet.
func (c *Cache) Prime(room string, history []*domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]*Entry, 0, len(history))
	for _, m := range history {
		entries = append(entries, entryFromMessage(m))
	}
	for _, e := range c.rooms[room] {
		if e.ID == 0 {
			entries = append(entries, e)
		}
	}
	c.rooms[room] = entries
}

// InsertOptimistic appends a local entry with status sending before any
// network confirmation and arms the send timeout.
func (c *Cache) InsertOptimistic(room, tempID, authorName, content string) *Entry {
	e := &Entry{
		TempID:     tempID,
		Room:       room,
		AuthorID:   c.selfID,
		AuthorName: authorName,
		Content:    content,
		Status:     StatusSending,
		Timestamp:  time.Now(),
	}

	c.mu.Lock()
	c.rooms[room] = append(c.rooms[room], e)
	c.timers[tempID] = time.AfterFunc(c.sendTimeout, func() {
		c.MarkError(room, tempID)
	})
	c.mu.Unlock()

	snapshot := *e
	return &snapshot
}

// ReconcileAck merges the server-confirmed fields into the entry keyed by
// tempID. The tempID is preserved as the stable merge key; the status only
// ever moves forward, so an ack arriving after a seen update cannot
// downgrade the entry.
func (c *Cache) ReconcileAck(room, tempID string, id int64, status string, timestamp time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarmLocked(tempID)
	for _, e := range c.rooms[room] {
		if e.TempID == tempID {
			e.ID = id
			if !timestamp.IsZero() {
				e.Timestamp = timestamp
			}
			if statusRank(status) > statusRank(e.Status) {
				e.Status = status
			}
			return true
		}
	}
	return false
}

// ReconcileBroadcast folds a live-delivered message into the room. If an
// entry already matches by id or tempId the broadcast is a duplicate of
// something the ack path delivered and is dropped; otherwise it is a
// message from another participant and is appended.
func (c *Cache) ReconcileBroadcast(msg *domain.Message, tempID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.rooms[msg.Room] {
		if (e.ID != 0 && e.ID == msg.ID) || (tempID != "" && e.TempID == tempID) {
			return false
		}
	}
	c.rooms[msg.Room] = append(c.rooms[msg.Room], entryFromMessage(msg))
	return true
}

// MarkError flips the entry to error without removing it, so the user can
// see the failure and resend. No-op once the entry is past sending.
func (c *Cache) MarkError(room, tempID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarmLocked(tempID)
	for _, e := range c.rooms[room] {
		if e.TempID == tempID && e.Status == StatusSending {
			e.Status = StatusError
			return true
		}
	}
	return false
}

// MarkSeenForSelf handles a messages_seen event for the room: every entry
// authored by the local user advances to seen. Failed sends stay error
// since they were never delivered.
func (c *Cache) MarkSeenForSelf(room string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	n := 0
	for _, e := range c.rooms[room] {
		if e.AuthorID != c.selfID || e.Status == StatusError || e.Status == StatusSeen {
			continue
		}
		e.Status = StatusSeen
		e.SeenAt = &now
		n++
	}
	return n
}

// Messages returns a copy of the room's entries in insertion order.
func (c *Cache) Messages(room string) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]Entry, 0, len(c.rooms[room]))
	for _, e := range c.rooms[room] {
		res = append(res, *e)
	}
	return res
}

func (c *Cache) disarmLocked(tempID string) {
	if t, ok := c.timers[tempID]; ok {
		t.Stop()
		delete(c.timers, tempID)
	}
}

func entryFromMessage(m *domain.Message) *Entry {
	e := &Entry{
		ID:        m.ID,
		Room:      m.Room,
		AuthorID:  m.SenderID,
		Content:   m.Content,
		Status:    m.Status,
		Timestamp: m.Timestamp,
		SeenAt:    m.SeenAt,
	}
	if m.Sender != nil {
		e.AuthorName = m.Sender.Name
	}
	return e
}

// statusRank orders the status lifecycle so merges can only move forward:
// sending -> sent -> seen. error sits outside the ladder and is handled
// explicitly by MarkError.
func statusRank(status string) int {
	switch status {
	case StatusSending:
		return 0
	case StatusSent:
		return 1
	case StatusSeen:
		return 2
	}
	return -1
}
