package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/service"
)

func TestFriendSend(t *testing.T) {
	alice := &domain.User{ID: 1, Name: "Alice"}
	bob := &domain.User{ID: 2, Name: "Bob"}

	t.Run("Success", func(t *testing.T) {
		reqRepo := new(MockFriendRequestRepo)
		userRepo := new(MockUserRepo)
		svc := service.NewFriendService(reqRepo, userRepo)

		userRepo.On("GetByID", mock.Anything, int64(1)).Return(alice, nil)
		userRepo.On("GetByID", mock.Anything, int64(2)).Return(bob, nil)
		reqRepo.On("FindBetween", mock.Anything, int64(1), int64(2)).Return(nil, nil)
		reqRepo.On("Create", mock.Anything, mock.MatchedBy(func(fr *domain.FriendRequest) bool {
			return fr.SenderID == 1 && fr.ReceiverID == 2 && fr.Status == domain.RequestStatusPending
		})).Return(nil)

		fr, err := svc.Send(context.Background(), 1, 2)
		assert.NoError(t, err)
		assert.Equal(t, "Alice", fr.Sender.Name)
		reqRepo.AssertExpectations(t)
	})

	t.Run("SelfRequest", func(t *testing.T) {
		svc := service.NewFriendService(new(MockFriendRequestRepo), new(MockUserRepo))

		_, err := svc.Send(context.Background(), 1, 1)
		assert.ErrorIs(t, err, domain.ErrSelfRequest)
	})

	t.Run("ReceiverMissing", func(t *testing.T) {
		reqRepo := new(MockFriendRequestRepo)
		userRepo := new(MockUserRepo)
		svc := service.NewFriendService(reqRepo, userRepo)

		userRepo.On("GetByID", mock.Anything, int64(1)).Return(alice, nil)
		userRepo.On("GetByID", mock.Anything, int64(42)).Return(nil, nil)

		_, err := svc.Send(context.Background(), 1, 42)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("PendingEitherDirectionBlocks", func(t *testing.T) {
		// Bob already asked Alice; Alice asking Bob is a duplicate, not a new
		// handshake.
		reqRepo := new(MockFriendRequestRepo)
		userRepo := new(MockUserRepo)
		svc := service.NewFriendService(reqRepo, userRepo)

		userRepo.On("GetByID", mock.Anything, int64(1)).Return(alice, nil)
		userRepo.On("GetByID", mock.Anything, int64(2)).Return(bob, nil)
		reqRepo.On("FindBetween", mock.Anything, int64(1), int64(2)).Return(&domain.FriendRequest{
			ID: 9, SenderID: 2, ReceiverID: 1, Status: domain.RequestStatusPending,
		}, nil)

		_, err := svc.Send(context.Background(), 1, 2)
		assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
		reqRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("AlreadyFriends", func(t *testing.T) {
		reqRepo := new(MockFriendRequestRepo)
		userRepo := new(MockUserRepo)
		svc := service.NewFriendService(reqRepo, userRepo)

		userRepo.On("GetByID", mock.Anything, int64(1)).Return(alice, nil)
		userRepo.On("GetByID", mock.Anything, int64(2)).Return(bob, nil)
		reqRepo.On("FindBetween", mock.Anything, int64(1), int64(2)).Return(&domain.FriendRequest{
			ID: 9, SenderID: 1, ReceiverID: 2, Status: domain.RequestStatusAccepted,
		}, nil)

		_, err := svc.Send(context.Background(), 1, 2)
		assert.ErrorIs(t, err, domain.ErrAlreadyFriends)
	})

	t.Run("RejectedAllowsFreshRequest", func(t *testing.T) {
		reqRepo := new(MockFriendRequestRepo)
		userRepo := new(MockUserRepo)
		svc := service.NewFriendService(reqRepo, userRepo)

		userRepo.On("GetByID", mock.Anything, int64(1)).Return(alice, nil)
		userRepo.On("GetByID", mock.Anything, int64(2)).Return(bob, nil)
		reqRepo.On("FindBetween", mock.Anything, int64(1), int64(2)).Return(&domain.FriendRequest{
			ID: 9, SenderID: 1, ReceiverID: 2, Status: domain.RequestStatusRejected,
		}, nil)
		reqRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		fr, err := svc.Send(context.Background(), 1, 2)
		assert.NoError(t, err)
		assert.Equal(t, domain.RequestStatusPending, fr.Status)
	})
}

func TestFriendAccept(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		reqRepo := new(MockFriendRequestRepo)
		svc := service.NewFriendService(reqRepo, new(MockUserRepo))

		reqRepo.On("GetByID", mock.Anything, int64(9)).Return(&domain.FriendRequest{
			ID: 9, SenderID: 1, ReceiverID: 2, Status: domain.RequestStatusPending,
		}, nil)
		reqRepo.On("Accept", mock.Anything, int64(9)).Return(nil)

		assert.NoError(t, svc.Accept(context.Background(), 9))
		reqRepo.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		reqRepo := new(MockFriendRequestRepo)
		svc := service.NewFriendService(reqRepo, new(MockUserRepo))

		reqRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, nil)

		err := svc.Accept(context.Background(), 404)
		assert.ErrorIs(t, err, domain.ErrRequestNotFound)
		reqRepo.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
	})
}

func TestFriendListPending(t *testing.T) {
	t.Run("EmptyIsNotNil", func(t *testing.T) {
		reqRepo := new(MockFriendRequestRepo)
		svc := service.NewFriendService(reqRepo, new(MockUserRepo))

		reqRepo.On("ListPendingForReceiver", mock.Anything, int64(2)).Return(nil, nil)

		reqs, err := svc.ListPending(context.Background(), 2)
		assert.NoError(t, err)
		assert.NotNil(t, reqs)
		assert.Empty(t, reqs)
	})
}
