package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/service"
)

func TestMessageCreate(t *testing.T) {
	sender := &domain.User{ID: 1, Name: "Alice", Email: "alice@example.com"}

	t.Run("ResolveBySenderID", func(t *testing.T) {
		msgRepo := new(MockMessageRepo)
		userRepo := new(MockUserRepo)
		svc := service.NewMessageService(msgRepo, userRepo)

		userRepo.On("GetByID", mock.Anything, int64(1)).Return(sender, nil)
		msgRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.Room == "1-2" && m.SenderID == 1 && m.Status == domain.MessageStatusSent
		})).Return(nil)

		msg, err := svc.Create(context.Background(), service.MessageCreateInput{
			Room:     "1-2",
			SenderID: 1,
			Content:  "hello",
		})
		assert.NoError(t, err)
		assert.Equal(t, "Alice", msg.Sender.Name)
		msgRepo.AssertExpectations(t)
	})

	t.Run("ResolveByEmailFallback", func(t *testing.T) {
		msgRepo := new(MockMessageRepo)
		userRepo := new(MockUserRepo)
		svc := service.NewMessageService(msgRepo, userRepo)

		userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(sender, nil)
		msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		msg, err := svc.Create(context.Background(), service.MessageCreateInput{
			Room:    "1-2",
			Email:   "alice@example.com",
			Content: "hello",
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), msg.SenderID)
		userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("UnknownSender", func(t *testing.T) {
		msgRepo := new(MockMessageRepo)
		userRepo := new(MockUserRepo)
		svc := service.NewMessageService(msgRepo, userRepo)

		userRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

		_, err := svc.Create(context.Background(), service.MessageCreateInput{
			Room:     "1-99",
			SenderID: 99,
			Content:  "hello",
		})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		msgRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("MissingRoomOrContent", func(t *testing.T) {
		svc := service.NewMessageService(new(MockMessageRepo), new(MockUserRepo))

		_, err := svc.Create(context.Background(), service.MessageCreateInput{SenderID: 1, Content: "hi"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = svc.Create(context.Background(), service.MessageCreateInput{Room: "1-2", SenderID: 1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("ContentTooLong", func(t *testing.T) {
		svc := service.NewMessageService(new(MockMessageRepo), new(MockUserRepo))

		_, err := svc.Create(context.Background(), service.MessageCreateInput{
			Room:     "1-2",
			SenderID: 1,
			Content:  strings.Repeat("x", 5001),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestMessageListRoom(t *testing.T) {
	t.Run("EmptyHistoryIsNotNil", func(t *testing.T) {
		msgRepo := new(MockMessageRepo)
		svc := service.NewMessageService(msgRepo, new(MockUserRepo))

		msgRepo.On("ListForRoom", mock.Anything, "1-2").Return(nil, nil)

		msgs, err := svc.ListRoom(context.Background(), "1-2")
		assert.NoError(t, err)
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	})
}

func TestMessageMarkSeen(t *testing.T) {
	t.Run("BulkUpdate", func(t *testing.T) {
		msgRepo := new(MockMessageRepo)
		svc := service.NewMessageService(msgRepo, new(MockUserRepo))

		msgRepo.On("MarkSeen", mock.Anything, "1-2", int64(2), mock.Anything).Return(int64(3), nil)

		n, err := svc.MarkSeen(context.Background(), "1-2", 2)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("SecondCallChangesNothing", func(t *testing.T) {
		msgRepo := new(MockMessageRepo)
		svc := service.NewMessageService(msgRepo, new(MockUserRepo))

		msgRepo.On("MarkSeen", mock.Anything, "1-2", int64(2), mock.Anything).Return(int64(0), nil)

		n, err := svc.MarkSeen(context.Background(), "1-2", 2)
		assert.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("RoomRequired", func(t *testing.T) {
		svc := service.NewMessageService(new(MockMessageRepo), new(MockUserRepo))

		_, err := svc.MarkSeen(context.Background(), "", 2)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
