package ws

import (
	"context"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/service"
)

// Broadcaster is the single ingestion point for new messages. Both the
// live-channel dispatch and the durable HTTP write path call Ingest, so the
// persisted shape and the broadcast-exclusion rules are written once.
type Broadcaster struct {
	hub      *Hub
	messages *service.MessageService
}

func NewBroadcaster(hub *Hub, messages *service.MessageService) *Broadcaster {
	return &Broadcaster{
		hub:      hub,
		messages: messages,
	}
}

// Ingest resolves the sender, persists the message, broadcasts it to the
// room, and acks the originator.
//
// originConnID identifies the live connection the message arrived on; it is
// empty for the durable path. The broadcast excludes the origin connection
// when there is one, otherwise the sender's registered connection, since the
// durable-path caller already holds the message via the HTTP response and
// must not see it twice. A sender with no live connection means no
// exclusion: the whole room gets the broadcast.
func (b *Broadcaster) Ingest(ctx context.Context, originConnID string, in service.MessageCreateInput, tempID string) (*domain.Message, error) {
	msg, err := b.messages.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	exclude := originConnID
	ackConn := originConnID
	if exclude == "" {
		if connID, ok := b.hub.ConnIDForUser(msg.SenderID); ok {
			exclude = connID
			ackConn = connID
		}
	}

	b.hub.BroadcastRoom(msg.Room, EventReceiveMessage, msg, exclude)

	if ackConn != "" {
		b.hub.SendToConn(ackConn, EventMessageSent, MessageSentPayload{
			TempID:    tempID,
			ID:        msg.ID,
			Status:    msg.Status,
			Timestamp: msg.Timestamp,
		})
	}

	return msg, nil
}
