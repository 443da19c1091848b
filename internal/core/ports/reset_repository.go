package ports

import (
	"context"
	"time"

	"github.com/oceanauth/auth-api/internal/core/domain"
)

// ResetRepository defines the interface for password-reset-request persistence.
type ResetRepository interface {
	// Insert stores a new reset request.
	Insert(ctx context.Context, req *domain.PasswordResetRequest) error

	// Redeem claims an unused, unexpired reset request and replaces the
	// owning user's password hash. Claim and password write happen as one
	// atomic unit; a failure of either leaves both untouched. Returns
	// domain.ErrInvalidToken when the token is unknown, expired or spent.
	Redeem(ctx context.Context, token, newPasswordHash string, now time.Time) error
}
