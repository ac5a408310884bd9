package domain

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetWithFriends(ctx context.Context, id int64) (*User, error)
	SearchByName(ctx context.Context, query string, excludeID int64) ([]*User, error)
	TouchLastSeen(ctx context.Context, id int64) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListForRoom(ctx context.Context, room string) ([]*Message, error)
	// MarkSeen flips every message in the room not sent by readerID and not
	// already seen to seen. Returns the number of rows changed.
	MarkSeen(ctx context.Context, room string, readerID int64, at time.Time) (int64, error)
}

// FriendRequestRepository defines persistence operations for friend requests.
type FriendRequestRepository interface {
	Create(ctx context.Context, fr *FriendRequest) error
	GetByID(ctx context.Context, id int64) (*FriendRequest, error)
	// FindBetween returns any request between the two users regardless of
	// direction or status, or nil when none exists.
	FindBetween(ctx context.Context, userA, userB int64) (*FriendRequest, error)
	ListPendingForReceiver(ctx context.Context, receiverID int64) ([]*FriendRequest, error)
	// Accept marks the request accepted and inserts the symmetric friendship
	// edge for both users inside a single transaction.
	Accept(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64) error
}
