package domain

import "time"

// Message status values. Status only ever moves forward: once a message is
// seen it never reverts to sent.
const (
	MessageStatusSent = "sent"
	MessageStatusSeen = "seen"
)

// FriendRequest status values. pending is the only non-terminal state.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// User represents an application user. Friends is populated only by
// read paths that explicitly ask for it.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	Image          *string   `db:"image" json:"image,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	LastSeen       time.Time `db:"last_seen" json:"lastSeen"`
	Friends        []*User   `json:"friends,omitempty"`
}

// Snapshot returns a copy of the user stripped to the fields that are safe
// to hand to other clients (presence broadcasts, message sender info).
func (u *User) Snapshot() *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Image:    u.Image,
		LastSeen: u.LastSeen,
	}
}

// Message is a persisted chat message. Immutable after creation except for
// Status/SeenAt, which are advanced in bulk by the seen tracker.
type Message struct {
	ID        int64      `db:"id" json:"id"`
	Room      string     `db:"room" json:"room"`
	SenderID  int64      `db:"sender_id" json:"senderId"`
	Content   string     `db:"content" json:"content"`
	Status    string     `db:"status" json:"status"`
	Timestamp time.Time  `db:"created_at" json:"timestamp"`
	SeenAt    *time.Time `db:"seen_at" json:"seenAt,omitempty"`
	Sender    *User      `json:"sender,omitempty"`
}

// FriendRequest tracks the handshake between two users. At most one
// non-terminal request may exist per unordered (sender, receiver) pair.
type FriendRequest struct {
	ID         int64     `db:"id" json:"id"`
	SenderID   int64     `db:"sender_id" json:"senderId"`
	ReceiverID int64     `db:"receiver_id" json:"receiverId"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	Sender     *User     `json:"sender,omitempty"`
}
