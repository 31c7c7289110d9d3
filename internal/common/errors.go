// Package common defines shared constants and sentinel errors used across
// sharekeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrTokenExpired   = errors.New("token expired")

	// Validation errors (malformed key, filename or email).
	ErrInvalidInput = errors.New("invalid input")

	// Sharing errors. The messages are returned to API callers as-is.
	ErrFileNotFound       = errors.New("file not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTargetUserNotFound = errors.New("target user not found")
	ErrPermissionNotFound = errors.New("permission not found")
	ErrInvalidToken       = errors.New("invalid token")
)
