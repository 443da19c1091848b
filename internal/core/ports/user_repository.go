package ports

import (
	"context"
	"time"

	"github.com/oceanauth/auth-api/internal/core/domain"
)

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Insert stores a new account and returns it with its assigned ID.
	// Returns domain.ErrUserExists on a duplicate email.
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)

	// SetVerificationToken replaces the account's pending verification token
	// and its expiry, superseding any previous one.
	SetVerificationToken(ctx context.Context, userID, token string, expires time.Time) error

	// RedeemVerificationToken atomically matches an unexpired verification
	// token, activates the account, marks the email verified and clears the
	// token. Returns domain.ErrInvalidToken when nothing matches.
	RedeemVerificationToken(ctx context.Context, token string, now time.Time) (*domain.User, error)

	// UpdatePassword replaces the account's password hash.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}
