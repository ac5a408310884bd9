package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrSelfRequest      = errors.New("cannot send request to yourself")
	ErrDuplicateRequest = errors.New("request already pending")
	ErrRequestTerminal  = errors.New("request already resolved")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrConflict         = errors.New("resource already exists")
	ErrInvalidInput     = errors.New("invalid input")
)
