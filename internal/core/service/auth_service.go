package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/oceanauth/auth-api/internal/core/domain"
	"github.com/oceanauth/auth-api/internal/core/ports"
	"github.com/oceanauth/auth-api/internal/core/security"
)

// AuthService implements every account flow: registration with email
// verification, password login, Google federated login, verification and
// password-reset token lifecycles, and bearer-token resolution.
type AuthService struct {
	users    ports.UserRepository
	resets   ports.ResetRepository
	provider ports.IdentityProvider
	codec    *security.TokenCodec

	verificationTTL time.Duration
	resetTTL        time.Duration

	logger zerolog.Logger
	now    func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	resets ports.ResetRepository,
	provider ports.IdentityProvider,
	codec *security.TokenCodec,
	verificationTTL, resetTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	if verificationTTL <= 0 {
		verificationTTL = 24 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = 24 * time.Hour
	}
	return &AuthService{
		users:           users,
		resets:          resets,
		provider:        provider,
		codec:           codec,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
		logger:          logger,
		now:             time.Now,
	}
}

// Register creates an inactive, unverified account. The pending verification
// token travels on the insert itself, so an account without a way to verify
// cannot be left behind by a partial failure. The raw token is returned for
// delivery; it is never persisted outside the user record.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, "", domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	token, err := security.NewOpaqueToken()
	if err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	expires := now.Add(s.verificationTTL)
	user, err := s.users.Insert(ctx, &domain.User{
		Email:             email,
		PasswordHash:      hash,
		FullName:          fullName,
		IsActive:          false,
		VerificationToken: token,
		VerificationExp:   &expires,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return user, token, nil
}

// Login authenticates by password. An existing but not yet verified account
// fails with ErrInactiveAccount only after the password checked out, so the
// inactive error never confirms credentials for an attacker probing accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if user.PasswordHash == "" || !security.CheckPassword(password, user.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, domain.ErrInactiveAccount
	}

	token, err := s.codec.Issue(user.Email, 0)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("login succeeded")
	return token, user, nil
}

// GoogleLogin exchanges the provider token for a verified identity and
// creates the local account on first sight. Federated emails are pre-trusted:
// the account is born active and verified, with no password hash.
func (s *AuthService) GoogleLogin(ctx context.Context, providerToken string) (string, *domain.User, error) {
	identity, err := s.provider.Exchange(ctx, providerToken)
	if err != nil {
		return "", nil, err
	}

	user, err := s.users.FindByEmail(ctx, identity.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		now := s.now().UTC()
		user, err = s.users.Insert(ctx, &domain.User{
			Email:         identity.Email,
			FullName:      identity.FullName,
			GoogleID:      identity.SubjectID,
			IsActive:      true,
			EmailVerified: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err == nil {
			s.logger.Info().Str("user_id", user.ID).Msg("federated user created")
		}
	}
	if err != nil {
		return "", nil, err
	}

	token, err := s.codec.Issue(user.Email, 0)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifyEmail redeems a verification token. Redemption and activation are one
// atomic store operation; a second redemption of the same token fails.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.users.RedeemVerificationToken(ctx, token, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("email verified")
	return user, nil
}

// ResendVerification issues a fresh verification token, superseding the stored
// one. Unknown and already-verified emails return sent=false with no error so
// the caller can answer with the same generic acknowledgment in every case.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (string, bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if user.EmailVerified {
		return "", false, nil
	}

	token, err := s.issueVerificationToken(ctx, user)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// ForgotPassword records a password-reset request. The non-leaking contract
// mirrors ResendVerification: absent users produce sent=false, nil error.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	token, err := security.NewOpaqueToken()
	if err != nil {
		return "", false, err
	}

	now := s.now().UTC()
	req := &domain.PasswordResetRequest{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.resets.Insert(ctx, req); err != nil {
		return "", false, fmt.Errorf("store reset request: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset requested")
	return token, true, nil
}

// ResetPassword redeems a reset token and replaces the password. The claim of
// the request and the password write are one atomic unit in the repository;
// a failed redemption leaves the previous hash untouched.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domain.ErrInvalidToken
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.resets.Redeem(ctx, token, hash, s.now().UTC()); err != nil {
		return err
	}

	s.logger.Info().Msg("password reset completed")
	return nil
}

// CurrentUser resolves a bearer token to its account. Invalid tokens and
// tokens whose subject no longer exists both fail with ErrInvalidCredentials.
func (s *AuthService) CurrentUser(ctx context.Context, bearer string) (*domain.User, error) {
	email, err := s.codec.Verify(bearer)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueVerificationToken(ctx context.Context, user *domain.User) (string, error) {
	token, err := security.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	expires := s.now().UTC().Add(s.verificationTTL)
	if err := s.users.SetVerificationToken(ctx, user.ID, token, expires); err != nil {
		return "", fmt.Errorf("store verification token: %w", err)
	}
	return token, nil
}
