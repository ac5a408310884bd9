package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ramim1310/chat/internal/domain"
)

// Live-channel event kinds. The set is closed: anything outside it is
// rejected at the boundary.
const (
	// client -> server
	EventUserConnected     = "user_connected"
	EventJoinRoom          = "join_room"
	EventSendMessage       = "send_message"
	EventMarkMessagesRead  = "mark_messages_read"
	EventTyping            = "typing"
	EventStopTyping        = "stop_typing"
	EventSendFriendRequest = "sendFriendRequest"

	// server -> client
	EventReceiveMessage        = "receive_message"
	EventMessageSent           = "message_sent"
	EventMessagesSeen          = "messages_seen"
	EventDisplayTyping         = "display_typing"
	EventHideTyping            = "hide_typing"
	EventActiveUsers           = "active_users"
	EventFriendRequestReceived = "friend_request_received"
	EventFriendRequestResult   = "friend_request_result"
	EventError                 = "error"
)

// ErrBadPayload marks a syntactically or semantically malformed event
// payload. The dispatch loop reports it back to the sender instead of
// acting on partial data.
var ErrBadPayload = errors.New("malformed event payload")

// Envelope is the wire frame for every live-channel event.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an event into its wire frame.
func Encode(eventType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{Type: eventType, Data: data})
}

// DecodeEnvelope parses a raw frame into an envelope.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrBadPayload)
	}
	return &env, nil
}

// IdentityPayload is the user_connected payload: the identity snapshot the
// client announces for presence.
type IdentityPayload struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image,omitempty"`
}

func DecodeIdentity(data json.RawMessage) (*IdentityPayload, error) {
	var p IdentityPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: identity requires an id", ErrBadPayload)
	}
	return &p, nil
}

// DecodeRoom parses the bare-string room payload used by join_room, typing
// and stop_typing.
func DecodeRoom(data json.RawMessage) (string, error) {
	var room string
	if err := json.Unmarshal(data, &room); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if room == "" {
		return "", fmt.Errorf("%w: room must not be empty", ErrBadPayload)
	}
	return room, nil
}

// SendMessagePayload is the live-path ingestion payload. SenderID is
// preferred; Email is the fallback lookup key. TempID is the client
// correlation id echoed back in the message_sent ack.
type SendMessagePayload struct {
	Room     string `json:"room"`
	SenderID int64  `json:"senderId,omitempty"`
	Email    string `json:"email,omitempty"`
	Content  string `json:"content"`
	TempID   string `json:"tempId,omitempty"`
}

func DecodeSendMessage(data json.RawMessage) (*SendMessagePayload, error) {
	var p SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if p.Room == "" || p.Content == "" {
		return nil, fmt.Errorf("%w: send_message requires room and content", ErrBadPayload)
	}
	if p.SenderID == 0 && p.Email == "" {
		return nil, fmt.Errorf("%w: send_message requires senderId or email", ErrBadPayload)
	}
	return &p, nil
}

// MarkReadPayload triggers the bulk seen update for a room.
type MarkReadPayload struct {
	Room   string `json:"room"`
	UserID int64  `json:"userId"`
}

func DecodeMarkRead(data json.RawMessage) (*MarkReadPayload, error) {
	var p MarkReadPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if p.Room == "" || p.UserID == 0 {
		return nil, fmt.Errorf("%w: mark_messages_read requires room and userId", ErrBadPayload)
	}
	return &p, nil
}

// FriendRequestPayload is the sendFriendRequest payload. Ref correlates the
// point-to-point result event with the originating call, standing in for a
// per-call ack callback.
type FriendRequestPayload struct {
	Ref        string `json:"ref,omitempty"`
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
}

func DecodeFriendRequest(data json.RawMessage) (*FriendRequestPayload, error) {
	var p FriendRequestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if p.SenderID == 0 || p.ReceiverID == 0 {
		return nil, fmt.Errorf("%w: sendFriendRequest requires senderId and receiverId", ErrBadPayload)
	}
	return &p, nil
}

// MessageSentPayload is the ack sent to the originator of an ingestion.
type MessageSentPayload struct {
	TempID    string    `json:"tempId,omitempty"`
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// MessagesSeenPayload notifies a room that its messages were marked seen.
type MessagesSeenPayload struct {
	Room string `json:"room"`
}

// FriendRequestReceivedPayload is the point-to-point receiver notification.
type FriendRequestReceivedPayload struct {
	RequestID  int64  `json:"requestId"`
	SenderName string `json:"senderName"`
	SenderID   int64  `json:"senderId"`
}

// FriendRequestResultPayload is the direct reply to a sendFriendRequest
// call. Only the initiating connection receives it.
type FriendRequestResultPayload struct {
	Ref     string                `json:"ref,omitempty"`
	OK      bool                  `json:"ok"`
	Error   string                `json:"error,omitempty"`
	Request *domain.FriendRequest `json:"request,omitempty"`
}

// ErrorPayload reports a failed operation back to the calling connection.
type ErrorPayload struct {
	Message string `json:"message"`
}
