package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Ramim1310/chat/internal/config"
	"github.com/Ramim1310/chat/internal/security"
	"github.com/Ramim1310/chat/internal/service"
	"github.com/Ramim1310/chat/internal/store/sqlite"
	"github.com/Ramim1310/chat/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(cfg *config.Config, db *sql.DB, hub *ws.Hub, tokenSvc *security.TokenService) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Repositories
	userRepo := sqlite.NewUserRepo(db)
	msgRepo := sqlite.NewMessageRepo(db)
	requestRepo := sqlite.NewFriendRequestRepo(db)

	// Services
	authSvc := service.NewAuthService(userRepo, tokenSvc, security.NewPasswordHasher(0))
	userSvc := service.NewUserService(userRepo)
	msgSvc := service.NewMessageService(msgRepo, userRepo)
	friendSvc := service.NewFriendService(requestRepo, userRepo)
	broadcaster := ws.NewBroadcaster(hub, msgSvc)

	refreshTTL := time.Duration(cfg.RefreshTokenDays) * 24 * time.Hour

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Server is running"))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Auth routes (no auth required)
	r.Post("/register", handleRegister(authSvc, refreshTTL))
	r.Post("/login", handleLogin(authSvc, refreshTTL))
	r.Post("/refresh_token", handleRefreshToken(authSvc))

	r.Route("/api", func(r chi.Router) {
		// History is an open read, matching the reference deployment.
		r.Get("/messages", handleListMessages(msgSvc))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, userRepo))

			r.Post("/messages", handleCreateMessage(broadcaster))

			r.Route("/users", func(r chi.Router) {
				r.Post("/search", handleSearchUsers(userSvc))
				r.Get("/me", handleMe(userSvc))
			})

			r.Route("/friend-request", func(r chi.Router) {
				r.Post("/send", handleSendFriendRequest(friendSvc, hub))
				r.Get("/pending/{userID}", handleListPendingRequests(friendSvc))
				r.Post("/accept", handleAcceptFriendRequest(friendSvc))
				r.Post("/reject", handleRejectFriendRequest(friendSvc))
			})
		})
	})

	// Live channel
	r.Get("/ws", ws.MakeHandler(hub, tokenSvc, userRepo, broadcaster, msgSvc, friendSvc, cfg.CORSOrigins))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
