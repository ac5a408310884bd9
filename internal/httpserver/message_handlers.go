package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/service"
	"github.com/Ramim1310/chat/internal/ws"
)

type messageCreateRequest struct {
	Room     string `json:"room"`
	Content  string `json:"content"`
	SenderID int64  `json:"senderId,omitempty"`
	Email    string `json:"email,omitempty"`
	TempID   string `json:"tempId,omitempty"`
}

// handleListMessages serves GET /api/messages?room=: the room history
// ascending by timestamp, sender snapshots included.
func handleListMessages(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := r.URL.Query().Get("room")
		if room == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "room query parameter is required"})
			return
		}

		msgs, err := msgSvc.ListRoom(r.Context(), room)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error fetching messages"})
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

// handleCreateMessage is the durable write path. It converges on the same
// Broadcaster.Ingest as the live channel: persist, broadcast to the room
// excluding the sender's live connection, ack over the live channel. The
// HTTP response body carries the persisted message, which is why the
// sender's own connection is excluded from the broadcast.
func handleCreateMessage(broadcaster *ws.Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}

		var req messageCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		msg, err := broadcaster.Ingest(r.Context(), "", service.MessageCreateInput{
			Room:     req.Room,
			SenderID: req.SenderID,
			Email:    req.Email,
			Content:  req.Content,
		}, req.TempID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
				return
			}
			if errors.Is(err, domain.ErrInvalidInput) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to send message"})
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}
