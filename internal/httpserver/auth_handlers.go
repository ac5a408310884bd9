package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/service"
)

const refreshCookieName = "refreshToken"

type registerRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Image    *string `json:"image"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
}

func setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func handleRegister(authSvc *service.AuthService, refreshTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		pair, err := authSvc.Register(r.Context(), service.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Image:    req.Image,
		})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email already exists"})
				return
			}
			if errors.Is(err, domain.ErrInvalidInput) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error registering user"})
			return
		}

		setRefreshCookie(w, pair.RefreshToken, refreshTTL)
		writeJSON(w, http.StatusOK, authResponse{Message: "Success", User: pair.User, Token: pair.AccessToken})
	}
}

func handleLogin(authSvc *service.AuthService, refreshTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		pair, err := authSvc.Login(r.Context(), service.LoginInput{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
				return
			}
			if errors.Is(err, domain.ErrUnauthorized) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error logging in"})
			return
		}

		setRefreshCookie(w, pair.RefreshToken, refreshTTL)
		writeJSON(w, http.StatusOK, authResponse{Message: "Success", User: pair.User, Token: pair.AccessToken})
	}
}

// handleRefreshToken exchanges the httpOnly renewal cookie for a fresh
// access token. 401 without a cookie, 403 when the cookie fails to verify,
// so the client knows to reset its session instead of retrying.
func handleRefreshToken(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(refreshCookieName)
		if err != nil || cookie.Value == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		access, err := authSvc.Refresh(r.Context(), cookie.Value)
		if err != nil {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
	}
}
