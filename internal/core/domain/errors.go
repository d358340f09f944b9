package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTimeRange   = errors.New("session start must be before end")
	ErrInvalidID          = errors.New("invalid id")
	ErrEmptyPatch         = errors.New("no fields to update")
)
