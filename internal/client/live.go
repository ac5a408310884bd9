package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/ws"
)

// Handlers receives decoded server events. Nil fields are skipped. All
// callbacks run on the single read-loop goroutine.
type Handlers struct {
	OnMessage             func(msg *domain.Message)
	OnMessageSent         func(ack ws.MessageSentPayload)
	OnMessagesSeen        func(room string)
	OnDisplayTyping       func(connID string)
	OnHideTyping          func(connID string)
	OnActiveUsers         func(users []*domain.User)
	OnFriendRequest       func(req ws.FriendRequestReceivedPayload)
	OnFriendRequestResult func(res ws.FriendRequestResultPayload)
	OnError               func(message string)
	OnClose               func(err error)
}

// Live is the websocket side of the client: it dials the server, announces
// presence, joins rooms, and routes inbound events to the handlers.
type Live struct {
	conn     *websocket.Conn
	handlers Handlers

	mu     sync.Mutex
	closed bool
}

// Dial connects to the live channel, authenticating with the access token.
func Dial(ctx context.Context, wsURL, token string, handlers Handlers) (*Live, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", wsURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	l := &Live{conn: conn, handlers: handlers}
	go l.readLoop()
	return l, nil
}

// Announce registers this connection's identity for presence.
func (l *Live) Announce(user *domain.User) error {
	return l.emit(ws.EventUserConnected, ws.IdentityPayload{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Image: user.Image,
	})
}

// JoinRoom subscribes the connection to a room's broadcasts.
func (l *Live) JoinRoom(room string) error {
	return l.emit(ws.EventJoinRoom, room)
}

// SendMessage pushes a message over the live path. The ack arrives as a
// message_sent event carrying the same tempID.
func (l *Live) SendMessage(room string, senderID int64, content, tempID string) error {
	return l.emit(ws.EventSendMessage, ws.SendMessagePayload{
		Room:     room,
		SenderID: senderID,
		Content:  content,
		TempID:   tempID,
	})
}

// MarkMessagesRead asks the server to flip the room's unread messages to
// seen on behalf of the reader.
func (l *Live) MarkMessagesRead(room string, readerID int64) error {
	return l.emit(ws.EventMarkMessagesRead, ws.MarkReadPayload{Room: room, UserID: readerID})
}

func (l *Live) Typing(room string) error {
	return l.emit(ws.EventTyping, room)
}

func (l *Live) StopTyping(room string) error {
	return l.emit(ws.EventStopTyping, room)
}

// SendFriendRequest initiates the handshake over the live channel. The
// outcome arrives as a friend_request_result event with the same ref.
func (l *Live) SendFriendRequest(ref string, senderID, receiverID int64) error {
	return l.emit(ws.EventSendFriendRequest, ws.FriendRequestPayload{
		Ref:        ref,
		SenderID:   senderID,
		ReceiverID: receiverID,
	})
}

func (l *Live) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	_ = l.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return l.conn.Close()
}

func (l *Live) emit(eventType string, payload any) error {
	frame, err := ws.Encode(eventType, payload)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return websocket.ErrCloseSent
	}
	return l.conn.WriteMessage(websocket.TextMessage, frame)
}

func (l *Live) readLoop() {
	for {
		_, raw, err := l.conn.ReadMessage()
		if err != nil {
			l.mu.Lock()
			closed := l.closed
			l.mu.Unlock()
			if !closed && l.handlers.OnClose != nil {
				l.handlers.OnClose(err)
			}
			return
		}

		env, err := ws.DecodeEnvelope(raw)
		if err != nil {
			log.Printf("live: dropping malformed frame: %v", err)
			continue
		}
		l.route(env)
	}
}

func (l *Live) route(env *ws.Envelope) {
	switch env.Type {
	case ws.EventReceiveMessage:
		var msg domain.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			log.Printf("live: bad receive_message payload: %v", err)
			return
		}
		if l.handlers.OnMessage != nil {
			l.handlers.OnMessage(&msg)
		}

	case ws.EventMessageSent:
		var ack ws.MessageSentPayload
		if err := json.Unmarshal(env.Data, &ack); err != nil {
			log.Printf("live: bad message_sent payload: %v", err)
			return
		}
		if l.handlers.OnMessageSent != nil {
			l.handlers.OnMessageSent(ack)
		}

	case ws.EventMessagesSeen:
		var p ws.MessagesSeenPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("live: bad messages_seen payload: %v", err)
			return
		}
		if l.handlers.OnMessagesSeen != nil {
			l.handlers.OnMessagesSeen(p.Room)
		}

	case ws.EventDisplayTyping:
		if connID, err := decodeString(env.Data); err == nil && l.handlers.OnDisplayTyping != nil {
			l.handlers.OnDisplayTyping(connID)
		}

	case ws.EventHideTyping:
		if connID, err := decodeString(env.Data); err == nil && l.handlers.OnHideTyping != nil {
			l.handlers.OnHideTyping(connID)
		}

	case ws.EventActiveUsers:
		var users []*domain.User
		if err := json.Unmarshal(env.Data, &users); err != nil {
			log.Printf("live: bad active_users payload: %v", err)
			return
		}
		if l.handlers.OnActiveUsers != nil {
			l.handlers.OnActiveUsers(users)
		}

	case ws.EventFriendRequestReceived:
		var req ws.FriendRequestReceivedPayload
		if err := json.Unmarshal(env.Data, &req); err != nil {
			log.Printf("live: bad friend_request_received payload: %v", err)
			return
		}
		if l.handlers.OnFriendRequest != nil {
			l.handlers.OnFriendRequest(req)
		}

	case ws.EventFriendRequestResult:
		var res ws.FriendRequestResultPayload
		if err := json.Unmarshal(env.Data, &res); err != nil {
			log.Printf("live: bad friend_request_result payload: %v", err)
			return
		}
		if l.handlers.OnFriendRequestResult != nil {
			l.handlers.OnFriendRequestResult(res)
		}

	case ws.EventError:
		var p ws.ErrorPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		if l.handlers.OnError != nil {
			l.handlers.OnError(p.Message)
		}

	default:
		log.Printf("live: ignoring unknown event %q", env.Type)
	}
}

func decodeString(data json.RawMessage) (string, error) {
	var s string
	err := json.Unmarshal(data, &s)
	return s, err
}
