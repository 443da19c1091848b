package domain

import "errors"

// Sentinel errors surfaced by the auth core. The API layer maps each one to a
// deterministic HTTP status; everything else is treated as an internal error.
var (
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInactiveAccount      = errors.New("inactive account")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrRateLimited          = errors.New("too many requests")
	ErrInvalidProviderToken = errors.New("invalid provider token")
	ErrProviderUnavailable  = errors.New("identity provider unavailable")
)
