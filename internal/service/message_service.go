package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Ramim1310/chat/internal/domain"
)

const maxContentRunes = 5000

// MessageService persists messages and advances their seen status. Delivery
// to live connections is layered on top by the ws broadcaster; this service
// only talks to the persistence port.
type MessageService struct {
	messages domain.MessageRepository
	users    domain.UserRepository
}

func NewMessageService(messages domain.MessageRepository, users domain.UserRepository) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
	}
}

type MessageCreateInput struct {
	Room     string
	SenderID int64  // preferred when set
	Email    string // fallback sender lookup
	Content  string
}

// Create resolves the sender, then persists the message with status sent.
// Resolution prefers the explicit sender id and falls back to email; when
// neither resolves the operation fails with ErrUserNotFound and nothing is
// written.
func (s *MessageService) Create(ctx context.Context, in MessageCreateInput) (*domain.Message, error) {
	if in.Room == "" || in.Content == "" {
		return nil, fmt.Errorf("%w: room and content are required", domain.ErrInvalidInput)
	}
	if len([]rune(in.Content)) > maxContentRunes {
		return nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrInvalidInput, maxContentRunes)
	}

	sender, err := s.resolveSender(ctx, in.SenderID, in.Email)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		Room:     in.Room,
		SenderID: sender.ID,
		Content:  in.Content,
		Status:   domain.MessageStatusSent,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	msg.Sender = sender.Snapshot()
	return msg, nil
}

func (s *MessageService) resolveSender(ctx context.Context, senderID int64, email string) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	if senderID != 0 {
		user, err = s.users.GetByID(ctx, senderID)
	} else if email != "" {
		user, err = s.users.GetByEmail(ctx, email)
	} else {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// ListRoom returns the room history ascending by timestamp.
func (s *MessageService) ListRoom(ctx context.Context, room string) ([]*domain.Message, error) {
	msgs, err := s.messages.ListForRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return msgs, nil
}

// MarkSeen flips every message in the room sent by someone other than the
// reader to seen, in one bulk update. Returns the number of messages
// changed; calling again with nothing unseen changes zero rows.
func (s *MessageService) MarkSeen(ctx context.Context, room string, readerID int64) (int64, error) {
	if room == "" {
		return 0, fmt.Errorf("%w: room is required", domain.ErrInvalidInput)
	}
	return s.messages.MarkSeen(ctx, room, readerID, time.Now().UTC())
}
