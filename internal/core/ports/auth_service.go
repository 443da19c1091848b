package ports

import (
	"context"

	"github.com/oceanauth/auth-api/internal/core/domain"
)

// AuthService is the orchestrator for every account flow. Raw verification and
// reset tokens are returned to the caller; delivering them (email) is the
// caller's concern.
type AuthService interface {
	// Register creates an inactive, unverified account and returns it along
	// with the raw email-verification token.
	Register(ctx context.Context, email, password, fullName string) (*domain.User, string, error)

	// Login authenticates by password and returns a signed bearer token.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)

	// GoogleLogin exchanges a Google OAuth token for a local session,
	// creating an active account on first sight of the email.
	GoogleLogin(ctx context.Context, providerToken string) (string, *domain.User, error)

	// VerifyEmail redeems a verification token and activates the account.
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)

	// ResendVerification issues a fresh verification token. When the email is
	// unknown or already verified it returns sent=false with no error so the
	// transport layer can answer with a generic acknowledgment.
	ResendVerification(ctx context.Context, email string) (token string, sent bool, err error)

	// ForgotPassword records a password-reset request. Same non-leaking
	// contract as ResendVerification.
	ForgotPassword(ctx context.Context, email string) (token string, sent bool, err error)

	// ResetPassword redeems a reset token and replaces the password hash.
	ResetPassword(ctx context.Context, token, newPassword string) error

	// CurrentUser resolves a bearer token to the account it was issued for.
	CurrentUser(ctx context.Context, bearer string) (*domain.User, error)
}
