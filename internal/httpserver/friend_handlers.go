package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/service"
	"github.com/Ramim1310/chat/internal/ws"
)

type friendRequestSendRequest struct {
	SenderID   int64 `json:"senderId"`
	ReceiverID int64 `json:"receiverId"`
}

type friendRequestIDRequest struct {
	RequestID int64 `json:"requestId"`
}

// handleSendFriendRequest mirrors the live-channel handshake over HTTP.
// The receiver push is best-effort, exactly as on the live path.
func handleSendFriendRequest(friendSvc *service.FriendService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req friendRequestSendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		fr, err := friendSvc.Send(r.Context(), req.SenderID, req.ReceiverID)
		if err != nil {
			status, msg := friendRequestHTTPError(err)
			writeJSON(w, status, map[string]string{"error": msg})
			return
		}

		hub.SendToUser(fr.ReceiverID, ws.EventFriendRequestReceived, ws.FriendRequestReceivedPayload{
			RequestID:  fr.ID,
			SenderName: fr.Sender.Name,
			SenderID:   fr.SenderID,
		})
		writeJSON(w, http.StatusOK, fr)
	}
}

func handleListPendingRequests(friendSvc *service.FriendService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "userID")
		userID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
			return
		}

		reqs, err := friendSvc.ListPending(r.Context(), userID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch requests"})
			return
		}
		writeJSON(w, http.StatusOK, reqs)
	}
}

func handleAcceptFriendRequest(friendSvc *service.FriendService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req friendRequestIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := friendSvc.Accept(r.Context(), req.RequestID); err != nil {
			if errors.Is(err, domain.ErrRequestNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Request not found"})
				return
			}
			if errors.Is(err, domain.ErrRequestTerminal) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request already resolved"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to accept"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Accepted"})
	}
}

func handleRejectFriendRequest(friendSvc *service.FriendService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req friendRequestIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := friendSvc.Reject(r.Context(), req.RequestID); err != nil {
			if errors.Is(err, domain.ErrRequestNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Request not found"})
				return
			}
			if errors.Is(err, domain.ErrRequestTerminal) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request already resolved"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to reject"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Rejected"})
	}
}

func friendRequestHTTPError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSelfRequest),
		errors.Is(err, domain.ErrDuplicateRequest),
		errors.Is(err, domain.ErrAlreadyFriends):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "Failed to send request"
	}
}
