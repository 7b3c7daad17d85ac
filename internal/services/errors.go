package services

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserInactive     = errors.New("user is not active")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrEmailTaken       = errors.New("email is already in use")
	ErrSelfConnection   = errors.New("cannot connect to yourself")
	ErrConnectionExists = errors.New("a connection already exists between these users")
	ErrNotFriends       = errors.New("users are not friends")
	ErrTokenNotFound    = errors.New("password reset token not found or expired")
)
