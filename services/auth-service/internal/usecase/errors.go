package usecase

import "errors"

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrNotificationFailed = errors.New("failed to deliver notification")
)
