package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/security"
	"github.com/Ramim1310/chat/internal/service"
)

func newAuthService(mockRepo *MockUserRepo) (*service.AuthService, *security.TokenService) {
	tokenSvc := security.NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	hasher := security.NewPasswordHasher(4) // low cost for tests
	return service.NewAuthService(mockRepo, tokenSvc, hasher), tokenSvc
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		svc, _ := newAuthService(mockRepo)

		mockRepo.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, nil)
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@example.com" && u.HashedPassword != "Password1!"
		})).Return(nil)

		pair, err := svc.Register(context.Background(), service.RegisterInput{
			Name:     "New User",
			Email:    "new@example.com",
			Password: "Password1!",
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, "New User", pair.User.Name)
		mockRepo.AssertExpectations(t)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		svc, _ := newAuthService(mockRepo)

		mockRepo.On("GetByEmail", mock.Anything, "taken@example.com").
			Return(&domain.User{ID: 7, Email: "taken@example.com"}, nil)

		_, err := svc.Register(context.Background(), service.RegisterInput{
			Name:     "Dup",
			Email:    "taken@example.com",
			Password: "Password1!",
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("MissingFields", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		svc, _ := newAuthService(mockRepo)

		_, err := svc.Register(context.Background(), service.RegisterInput{Email: "x@example.com"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLogin(t *testing.T) {
	hasher := security.NewPasswordHasher(4)
	hashed, _ := hasher.Hash("Password1!")
	stored := &domain.User{ID: 3, Name: "Alice", Email: "alice@example.com", HashedPassword: hashed}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		svc, _ := newAuthService(mockRepo)

		withFriends := &domain.User{ID: 3, Name: "Alice", Email: "alice@example.com",
			Friends: []*domain.User{{ID: 4, Name: "Bob"}}}
		mockRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(stored, nil)
		mockRepo.On("GetWithFriends", mock.Anything, int64(3)).Return(withFriends, nil)

		pair, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "alice@example.com",
			Password: "Password1!",
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.Len(t, pair.User.Friends, 1)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		svc, _ := newAuthService(mockRepo)

		mockRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

		_, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "nobody@example.com",
			Password: "whatever",
		})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		svc, _ := newAuthService(mockRepo)

		mockRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(stored, nil)

		_, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "alice@example.com",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.True(t, service.IsAuthError(err))
	})
}

func TestRefresh(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		svc, tokenSvc := newAuthService(mockRepo)

		refresh, err := tokenSvc.CreateRefreshToken(3, "alice@example.com")
		assert.NoError(t, err)
		mockRepo.On("GetByID", mock.Anything, int64(3)).
			Return(&domain.User{ID: 3, Email: "alice@example.com"}, nil)

		access, err := svc.Refresh(context.Background(), refresh)
		assert.NoError(t, err)

		claims, err := tokenSvc.ParseAccess(access)
		assert.NoError(t, err)
		userID, ok := security.UserIDFromClaims(claims)
		assert.True(t, ok)
		assert.Equal(t, int64(3), userID)
	})

	t.Run("AccessTokenRejected", func(t *testing.T) {
		// An access token must not pass as a refresh token; the secrets differ.
		mockRepo := new(MockUserRepo)
		svc, tokenSvc := newAuthService(mockRepo)

		access, err := tokenSvc.CreateAccessToken(3, "alice@example.com")
		assert.NoError(t, err)

		_, err = svc.Refresh(context.Background(), access)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Garbage", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		svc, _ := newAuthService(mockRepo)

		_, err := svc.Refresh(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
