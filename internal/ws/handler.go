package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/security"
	"github.com/Ramim1310/chat/internal/service"
)

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			// Non-browser clients (the terminal client, tests) send no
			// Origin header; the bearer token is their gate.
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractTokenFromWSRequest(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, nil
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			token := parts[1]
			if token != "" {
				return token, nil
			}
		}
	}

	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

// MakeHandler returns the HTTP handler for the /ws endpoint.
// Authenticates via Bearer token (Authorization header or
// Sec-WebSocket-Protocol), then dispatches events:
//   - user_connected      -> register presence, broadcast active_users
//   - join_room           -> subscribe connection to a room
//   - send_message        -> live-path ingestion via the Broadcaster
//   - mark_messages_read  -> bulk seen update + messages_seen broadcast
//   - typing/stop_typing  -> relay to the room, excluding the originator
//   - sendFriendRequest   -> handshake with direct result + receiver push
func MakeHandler(
	hub *Hub,
	tokens *security.TokenService,
	users domain.UserRepository,
	broadcaster *Broadcaster,
	msgSvc *service.MessageService,
	friendSvc *service.FriendService,
	allowedOrigins []string,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
		Subprotocols: []string{
			"bearer",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr, err := extractTokenFromWSRequest(r)
		if err != nil {
			var authErr wsAuthError
			if errors.As(err, &authErr) {
				http.Error(w, authErr.msg, authErr.status)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := tokens.ParseAccess(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID, ok := security.UserIDFromClaims(claims)
		if !ok {
			http.Error(w, "invalid token subject", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		user, err := users.GetByID(ctx, userID)
		if err != nil || user == nil {
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := NewClient(conn)
		hub.Add(client)
		go client.writePump()

		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		defer func() {
			hub.Remove(client)
			// Presence is gone either way; the lastSeen write is best-effort.
			if u := client.User(); u != nil {
				if err := users.TouchLastSeen(context.Background(), u.ID); err != nil {
					log.Printf("ws: update last seen for %d: %v", u.ID, err)
				}
			}
			conn.Close()
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			env, err := DecodeEnvelope(raw)
			if err != nil {
				client.Send(EventError, ErrorPayload{Message: err.Error()})
				continue
			}
			dispatch(ctx, hub, client, user, env, broadcaster, msgSvc, friendSvc)
		}
	}
}

func dispatch(
	ctx context.Context,
	hub *Hub,
	client *Client,
	authUser *domain.User,
	env *Envelope,
	broadcaster *Broadcaster,
	msgSvc *service.MessageService,
	friendSvc *service.FriendService,
) {
	switch env.Type {

	case EventUserConnected:
		// The payload identity is accepted as announced; the connection is
		// already gated by the access token.
		if _, err := DecodeIdentity(env.Data); err != nil {
			client.Send(EventError, ErrorPayload{Message: err.Error()})
			return
		}
		hub.RegisterPresence(client, authUser.Snapshot())

	case EventJoinRoom:
		room, err := DecodeRoom(env.Data)
		if err != nil {
			client.Send(EventError, ErrorPayload{Message: err.Error()})
			return
		}
		hub.Join(client, room)

	case EventSendMessage:
		p, err := DecodeSendMessage(env.Data)
		if err != nil {
			client.Send(EventError, ErrorPayload{Message: err.Error()})
			return
		}
		_, err = broadcaster.Ingest(ctx, client.ID, service.MessageCreateInput{
			Room:     p.Room,
			SenderID: p.SenderID,
			Email:    p.Email,
			Content:  p.Content,
		}, p.TempID)
		if err != nil {
			log.Printf("ws: ingest message: %v", err)
			client.Send(EventError, ErrorPayload{Message: "failed to send message"})
		}

	case EventMarkMessagesRead:
		p, err := DecodeMarkRead(env.Data)
		if err != nil {
			client.Send(EventError, ErrorPayload{Message: err.Error()})
			return
		}
		if _, err := msgSvc.MarkSeen(ctx, p.Room, p.UserID); err != nil {
			log.Printf("ws: mark seen: %v", err)
			client.Send(EventError, ErrorPayload{Message: "failed to mark messages as read"})
			return
		}
		// The room reinterprets which of its own outgoing messages are now
		// seen; the reader itself needs no notification.
		hub.BroadcastRoom(p.Room, EventMessagesSeen, MessagesSeenPayload{Room: p.Room}, client.ID)

	case EventTyping, EventStopTyping:
		room, err := DecodeRoom(env.Data)
		if err != nil {
			client.Send(EventError, ErrorPayload{Message: err.Error()})
			return
		}
		out := EventDisplayTyping
		if env.Type == EventStopTyping {
			out = EventHideTyping
		}
		hub.BroadcastRoom(room, out, client.ID, client.ID)

	case EventSendFriendRequest:
		p, err := DecodeFriendRequest(env.Data)
		if err != nil {
			client.Send(EventError, ErrorPayload{Message: err.Error()})
			return
		}
		fr, err := friendSvc.Send(ctx, p.SenderID, p.ReceiverID)
		if err != nil {
			client.Send(EventFriendRequestResult, FriendRequestResultPayload{
				Ref:   p.Ref,
				OK:    false,
				Error: friendRequestErrorMessage(err),
			})
			return
		}
		// Best-effort push to the receiver, if online.
		hub.SendToUser(fr.ReceiverID, EventFriendRequestReceived, FriendRequestReceivedPayload{
			RequestID:  fr.ID,
			SenderName: fr.Sender.Name,
			SenderID:   fr.SenderID,
		})
		client.Send(EventFriendRequestResult, FriendRequestResultPayload{
			Ref:     p.Ref,
			OK:      true,
			Request: fr,
		})

	default:
		log.Printf("ws: unknown event type %q from conn %s", env.Type, client.ID)
		client.Send(EventError, ErrorPayload{Message: "unknown event type"})
	}
}

func friendRequestErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrSelfRequest),
		errors.Is(err, domain.ErrDuplicateRequest),
		errors.Is(err, domain.ErrAlreadyFriends),
		errors.Is(err, domain.ErrUserNotFound):
		return err.Error()
	default:
		return "internal server error"
	}
}
