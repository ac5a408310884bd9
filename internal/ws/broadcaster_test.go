package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/service"
)

type stubMessageRepo struct {
	mock.Mock
}

func (m *stubMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	msg.ID = 42
	msg.Timestamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return args.Error(0)
}

func (m *stubMessageRepo) ListForRoom(ctx context.Context, room string) ([]*domain.Message, error) {
	return nil, nil
}

func (m *stubMessageRepo) MarkSeen(ctx context.Context, room string, readerID int64, at time.Time) (int64, error) {
	return 0, nil
}

type stubUserRepo struct {
	mock.Mock
}

func (m *stubUserRepo) Create(ctx context.Context, u *domain.User) error { return nil }

func (m *stubUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, nil
}

func (m *stubUserRepo) GetWithFriends(ctx context.Context, id int64) (*domain.User, error) {
	return nil, nil
}

func (m *stubUserRepo) SearchByName(ctx context.Context, query string, excludeID int64) ([]*domain.User, error) {
	return nil, nil
}

func (m *stubUserRepo) TouchLastSeen(ctx context.Context, id int64) error { return nil }

func newIngestFixture(t *testing.T) (*Hub, *Broadcaster) {
	t.Helper()
	msgRepo := new(stubMessageRepo)
	userRepo := new(stubUserRepo)
	msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	userRepo.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Name: "Alice"}, nil)

	hub := NewHub()
	return hub, NewBroadcaster(hub, service.NewMessageService(msgRepo, userRepo))
}

func TestIngestLivePath(t *testing.T) {
	hub, b := newIngestFixture(t)

	sender := NewClient(nil)
	peer := NewClient(nil)
	hub.Add(sender)
	hub.Add(peer)
	hub.Join(sender, "1-2")
	hub.Join(peer, "1-2")

	msg, err := b.Ingest(context.Background(), sender.ID, service.MessageCreateInput{
		Room:     "1-2",
		SenderID: 1,
		Content:  "hello",
	}, "temp-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), msg.ID)
	assert.Equal(t, domain.MessageStatusSent, msg.Status)

	// The origin connection gets only the ack, carrying its tempId.
	senderFrames := drainFrames(t, sender)
	assert.Equal(t, []string{EventMessageSent}, frameTypes(senderFrames))

	var ack MessageSentPayload
	assert.NoError(t, json.Unmarshal(senderFrames[0].Data, &ack))
	assert.Equal(t, "temp-1", ack.TempID)
	assert.Equal(t, int64(42), ack.ID)

	// The peer gets only the broadcast.
	peerFrames := drainFrames(t, peer)
	assert.Equal(t, []string{EventReceiveMessage}, frameTypes(peerFrames))

	var got domain.Message
	assert.NoError(t, json.Unmarshal(peerFrames[0].Data, &got))
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, "Alice", got.Sender.Name)
}

func TestIngestDurablePath(t *testing.T) {
	t.Run("SenderOnline", func(t *testing.T) {
		hub, b := newIngestFixture(t)

		senderConn := NewClient(nil)
		peer := NewClient(nil)
		hub.Add(senderConn)
		hub.Add(peer)
		hub.RegisterPresence(senderConn, &domain.User{ID: 1, Name: "Alice"})
		hub.Join(senderConn, "1-2")
		hub.Join(peer, "1-2")
		drainFrames(t, senderConn)
		drainFrames(t, peer)

		// Empty origin: the message arrived over HTTP. The sender's live
		// connection is excluded from the broadcast but still acked.
		_, err := b.Ingest(context.Background(), "", service.MessageCreateInput{
			Room:     "1-2",
			SenderID: 1,
			Content:  "via http",
		}, "temp-2")
		assert.NoError(t, err)

		assert.Equal(t, []string{EventMessageSent}, frameTypes(drainFrames(t, senderConn)))
		assert.Equal(t, []string{EventReceiveMessage}, frameTypes(drainFrames(t, peer)))
	})

	t.Run("SenderOffline", func(t *testing.T) {
		hub, b := newIngestFixture(t)

		peer := NewClient(nil)
		hub.Add(peer)
		hub.Join(peer, "1-2")

		// No exclusion applies; the whole room gets the broadcast.
		_, err := b.Ingest(context.Background(), "", service.MessageCreateInput{
			Room:     "1-2",
			SenderID: 1,
			Content:  "from offline sender",
		}, "")
		assert.NoError(t, err)

		assert.Equal(t, []string{EventReceiveMessage}, frameTypes(drainFrames(t, peer)))
	})
}

func TestIngestRejectsUnknownSender(t *testing.T) {
	msgRepo := new(stubMessageRepo)
	userRepo := new(stubUserRepo)
	userRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

	hub := NewHub()
	b := NewBroadcaster(hub, service.NewMessageService(msgRepo, userRepo))

	peer := NewClient(nil)
	hub.Add(peer)
	hub.Join(peer, "1-99")

	_, err := b.Ingest(context.Background(), "", service.MessageCreateInput{
		Room:     "1-99",
		SenderID: 99,
		Content:  "hi",
	}, "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Empty(t, drainFrames(t, peer))
}
