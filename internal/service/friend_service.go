package service

import (
	"context"
	"fmt"

	"github.com/Ramim1310/chat/internal/domain"
)

// FriendService runs the friend-request handshake. State machine per
// unordered user pair: none -> pending -> accepted | rejected; accepted and
// rejected are terminal for that record.
type FriendService struct {
	requests domain.FriendRequestRepository
	users    domain.UserRepository
}

func NewFriendService(requests domain.FriendRequestRepository, users domain.UserRepository) *FriendService {
	return &FriendService{
		requests: requests,
		users:    users,
	}
}

// Send creates a pending request from sender to receiver. The returned
// request has Sender populated so callers can build the receiver
// notification without another lookup.
func (s *FriendService) Send(ctx context.Context, senderID, receiverID int64) (*domain.FriendRequest, error) {
	if senderID == receiverID {
		return nil, domain.ErrSelfRequest
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("get sender: %w", err)
	}
	if sender == nil {
		return nil, domain.ErrUserNotFound
	}
	receiver, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("get receiver: %w", err)
	}
	if receiver == nil {
		return nil, domain.ErrUserNotFound
	}

	existing, err := s.requests.FindBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("find existing request: %w", err)
	}
	if existing != nil {
		switch existing.Status {
		case domain.RequestStatusPending:
			return nil, domain.ErrDuplicateRequest
		case domain.RequestStatusAccepted:
			return nil, domain.ErrAlreadyFriends
		}
		// A rejected record is terminal for that record only; the pair may
		// start a fresh handshake.
	}

	fr := &domain.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, fr); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	fr.Sender = sender.Snapshot()
	return fr, nil
}

// Accept marks the request accepted and creates the symmetric friendship
// edge, atomically.
func (s *FriendService) Accept(ctx context.Context, requestID int64) error {
	fr, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	if fr == nil {
		return domain.ErrRequestNotFound
	}
	return s.requests.Accept(ctx, requestID)
}

// Reject marks the request rejected. No further transition is permitted.
func (s *FriendService) Reject(ctx context.Context, requestID int64) error {
	return s.requests.Reject(ctx, requestID)
}

// ListPending returns incoming pending requests for the user, sender
// snapshots attached.
func (s *FriendService) ListPending(ctx context.Context, receiverID int64) ([]*domain.FriendRequest, error) {
	reqs, err := s.requests.ListPendingForReceiver(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []*domain.FriendRequest{}
	}
	return reqs, nil
}
