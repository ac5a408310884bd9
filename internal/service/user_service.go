package service

import (
	"context"

	"github.com/Ramim1310/chat/internal/domain"
)

// UserService provides user lookup and search.
type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetProfile returns the user together with their friend list.
func (s *UserService) GetProfile(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetWithFriends(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// Search finds users by name substring, excluding the caller.
func (s *UserService) Search(ctx context.Context, query string, selfID int64) ([]*domain.User, error) {
	if query == "" {
		return []*domain.User{}, nil
	}
	users, err := s.users.SearchByName(ctx, query, selfID)
	if err != nil {
		return nil, err
	}
	res := make([]*domain.User, 0, len(users))
	for _, u := range users {
		res = append(res, u.Snapshot())
	}
	return res, nil
}
