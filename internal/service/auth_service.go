package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/security"
)

// AuthService handles registration, login, and access-token renewal.
type AuthService struct {
	users  domain.UserRepository
	tokens *security.TokenService
	hash   *security.PasswordHasher
}

func NewAuthService(users domain.UserRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hash:   hash,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Image    *string
}

type LoginInput struct {
	Email    string
	Password string
}

// TokenPair carries the short-lived access token and the longer-lived
// renewal token. The renewal token is delivered as an httpOnly cookie and
// never appears in a JSON body.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenPair, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrInvalidInput)
	}

	if existing, err := s.users.GetByEmail(ctx, in.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if existing != nil {
		return nil, domain.ErrConflict
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:           in.Name,
		Email:          in.Email,
		HashedPassword: hashed,
		Image:          in.Image,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := s.hash.Verify(in.Password, user.HashedPassword); err != nil {
		return nil, domain.ErrUnauthorized
	}

	// Return the user with friends so the client can gate private chats.
	full, err := s.users.GetWithFriends(ctx, user.ID)
	if err == nil && full != nil {
		user = full
	}
	return s.issueTokens(user)
}

// Refresh exchanges a valid renewal token for a fresh access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", domain.ErrUnauthorized
	}
	userID, ok := security.UserIDFromClaims(claims)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	email, _ := claims["email"].(string)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return "", domain.ErrUnauthorized
	}
	return s.tokens.CreateAccessToken(user.ID, email)
}

func (s *AuthService) issueTokens(user *domain.User) (*TokenPair, error) {
	access, err := s.tokens.CreateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}
	refresh, err := s.tokens.CreateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

// IsAuthError reports whether err should surface as a 401/credentials
// problem rather than a server fault.
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
