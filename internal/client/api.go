package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/Ramim1310/chat/internal/domain"
)

// ErrSessionExpired is returned when a request fails with 401 and the
// refresh attempt is rejected too. The caller must log in again.
var ErrSessionExpired = errors.New("session expired")

// API is the HTTP client for the chat server. The refresh token lives in
// an httpOnly cookie managed by the jar; the access token is held in
// memory and attached as a bearer header. On a 401 the client refreshes
// once and retries the original request; if the refresh itself fails the
// session is reset.
type API struct {
	base string
	http *http.Client

	mu    sync.Mutex
	token string

	// OnSessionReset is called after a failed refresh, before
	// ErrSessionExpired is returned.
	OnSessionReset func()
}

func NewAPI(baseURL string) (*API, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &API{
		base: baseURL,
		http: &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}, nil
}

// Token returns the current access token, empty before login.
func (a *API) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *API) setToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

type authResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
}

// Register creates an account and starts a session.
func (a *API) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return a.authenticate(ctx, "/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// Login starts a session. The refresh cookie is captured by the jar.
func (a *API) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return a.authenticate(ctx, "/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (a *API) authenticate(ctx context.Context, path string, body any) (*domain.User, error) {
	var res authResponse
	if err := a.doOnce(ctx, http.MethodPost, path, body, &res, false); err != nil {
		return nil, err
	}
	a.setToken(res.Token)
	return res.User, nil
}

// Refresh exchanges the refresh cookie for a new access token.
func (a *API) Refresh(ctx context.Context) error {
	var res struct {
		AccessToken string `json:"accessToken"`
	}
	if err := a.doOnce(ctx, http.MethodPost, "/refresh_token", nil, &res, false); err != nil {
		return err
	}
	a.setToken(res.AccessToken)
	return nil
}

// ListMessages fetches the persisted history for a room.
func (a *API) ListMessages(ctx context.Context, room string) ([]*domain.Message, error) {
	var msgs []*domain.Message
	path := "/api/messages?room=" + url.QueryEscape(room)
	if err := a.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// PostMessage sends a message over the durable path. The tempID travels
// with the request so the server broadcast and this response reconcile
// against the same optimistic entry.
func (a *API) PostMessage(ctx context.Context, room string, senderID int64, content, tempID string) (*domain.Message, error) {
	body := map[string]any{
		"room":     room,
		"senderId": senderID,
		"content":  content,
		"tempId":   tempID,
	}
	var msg domain.Message
	if err := a.do(ctx, http.MethodPost, "/api/messages", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendDurable runs the optimistic flow over the HTTP path: insert the
// entry as sending, post, then settle it from the response. The server
// response stands in for the live-path ack; a failed post flips the entry
// to error without removing it.
func SendDurable(ctx context.Context, api *API, cache *Cache, room string, senderID int64, senderName, content, tempID string) (*domain.Message, error) {
	cache.InsertOptimistic(room, tempID, senderName, content)

	msg, err := api.PostMessage(ctx, room, senderID, content, tempID)
	if err != nil {
		cache.MarkError(room, tempID)
		return nil, err
	}
	cache.ReconcileAck(room, tempID, msg.ID, msg.Status, msg.Timestamp)
	return msg, nil
}

// SearchUsers looks up users by partial name match.
func (a *API) SearchUsers(ctx context.Context, query string) ([]*domain.User, error) {
	var users []*domain.User
	if err := a.do(ctx, http.MethodPost, "/api/users/search", map[string]string{"query": query}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Me fetches the current profile including the friend list.
func (a *API) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := a.do(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SendFriendRequest initiates the handshake over HTTP.
func (a *API) SendFriendRequest(ctx context.Context, senderID, receiverID int64) (*domain.FriendRequest, error) {
	body := map[string]int64{"senderId": senderID, "receiverId": receiverID}
	var fr domain.FriendRequest
	if err := a.do(ctx, http.MethodPost, "/api/friend-request/send", body, &fr); err != nil {
		return nil, err
	}
	return &fr, nil
}

// PendingFriendRequests lists requests awaiting the user's decision.
func (a *API) PendingFriendRequests(ctx context.Context, userID int64) ([]*domain.FriendRequest, error) {
	var reqs []*domain.FriendRequest
	path := fmt.Sprintf("/api/friend-request/pending/%d", userID)
	if err := a.do(ctx, http.MethodGet, path, nil, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (a *API) AcceptFriendRequest(ctx context.Context, requestID int64) error {
	return a.do(ctx, http.MethodPost, "/api/friend-request/accept", map[string]int64{"requestId": requestID}, nil)
}

func (a *API) RejectFriendRequest(ctx context.Context, requestID int64) error {
	return a.do(ctx, http.MethodPost, "/api/friend-request/reject", map[string]int64{"requestId": requestID}, nil)
}

// do performs an authenticated request with a single refresh-and-retry on
// 401. A second 401 after a successful refresh is returned as-is.
func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	err := a.doOnce(ctx, method, path, body, out, true)
	if !isUnauthorized(err) {
		return err
	}

	if refreshErr := a.Refresh(ctx); refreshErr != nil {
		a.setToken("")
		if a.OnSessionReset != nil {
			a.OnSessionReset()
		}
		return fmt.Errorf("%w: %v", ErrSessionExpired, refreshErr)
	}
	return a.doOnce(ctx, method, path, body, out, true)
}

func (a *API) doOnce(ctx context.Context, method, path string, body, out any, auth bool) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if token := a.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &APIError{Code: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// APIError carries a non-2xx response back to the caller.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized
}

func readErrorMessage(r io.Reader) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
