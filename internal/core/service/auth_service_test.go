package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/oceanauth/auth-api/internal/core/domain"
	"github.com/oceanauth/auth-api/internal/core/ports"
	"github.com/oceanauth/auth-api/internal/core/security"
)

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by email
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Insert(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("u%d", r.nextID)
	r.users[copy.Email] = copy
	return cloneUser(copy), nil
}

func (r *stubUserRepo) SetVerificationToken(_ context.Context, userID, token string, expires time.Time) error {
	for _, u := range r.users {
		if u.ID == userID {
			u.VerificationToken = token
			exp := expires
			u.VerificationExp = &exp
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) RedeemVerificationToken(_ context.Context, token string, now time.Time) (*domain.User, error) {
	for _, u := range r.users {
		if u.VerificationToken == token && u.VerificationExp != nil && now.Before(*u.VerificationExp) {
			u.IsActive = true
			u.EmailVerified = true
			u.VerificationToken = ""
			u.VerificationExp = nil
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrInvalidToken
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	for _, u := range r.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return domain.ErrUserNotFound
}

type stubResetRepo struct {
	users    *stubUserRepo
	requests map[string]*domain.PasswordResetRequest // keyed by token
}

func newStubResetRepo(users *stubUserRepo) *stubResetRepo {
	return &stubResetRepo{users: users, requests: make(map[string]*domain.PasswordResetRequest)}
}

func (r *stubResetRepo) Insert(_ context.Context, req *domain.PasswordResetRequest) error {
	copy := *req
	r.requests[req.Token] = &copy
	return nil
}

func (r *stubResetRepo) Redeem(ctx context.Context, token, newPasswordHash string, now time.Time) error {
	req, ok := r.requests[token]
	if !ok || !req.Valid(now) {
		return domain.ErrInvalidToken
	}
	req.Used = true
	return r.users.UpdatePassword(ctx, req.UserID, newPasswordHash)
}

type stubProvider struct {
	identity *ports.ProviderIdentity
	err      error
}

func (p *stubProvider) Exchange(_ context.Context, _ string) (*ports.ProviderIdentity, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.identity, nil
}

func newTestService(t *testing.T) (*AuthService, *stubUserRepo, *stubResetRepo, *stubProvider) {
	t.Helper()
	codec, err := security.NewTokenCodec("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	users := newStubUserRepo()
	resets := newStubResetRepo(users)
	provider := &stubProvider{}
	svc := NewAuthService(users, resets, provider, codec, 24*time.Hour, 24*time.Hour, zerolog.Nop())
	return svc, users, resets, provider
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	user, token, err := svc.Register(context.Background(), "a@x.com", "pw1", "Ada")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.IsActive || user.EmailVerified {
		t.Fatalf("new account must start inactive and unverified: %+v", user)
	}
	if token == "" {
		t.Fatalf("expected verification token")
	}
	if user.PasswordHash == "pw1" {
		t.Fatalf("password stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

// readOnlyTokenRepo rejects any post-insert token write.
type readOnlyTokenRepo struct {
	*stubUserRepo
}

func (r *readOnlyTokenRepo) SetVerificationToken(context.Context, string, string, time.Time) error {
	return fmt.Errorf("token writes unavailable")
}

func TestAuthService_Register_TokenStoredWithInsert(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	svc.users = &readOnlyTokenRepo{users}

	user, token, err := svc.Register(context.Background(), "a@x.com", "pw1", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	stored := users.users["a@x.com"]
	if stored.VerificationToken != token || stored.VerificationExp == nil {
		t.Fatalf("insert did not carry the verification token: %+v", stored)
	}
	if user.VerificationToken != token {
		t.Fatalf("returned account missing its token: %+v", user)
	}

	if _, err := svc.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("token from insert rejected: %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	if _, _, err := svc.Register(context.Background(), "a@x.com", "pw1", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := svc.Register(context.Background(), "a@x.com", "pw2", ""); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_BeforeVerification(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, _, _ = svc.Register(context.Background(), "a@x.com", "pw1", "")
	if _, _, err := svc.Login(context.Background(), "a@x.com", "pw1"); err != domain.ErrInactiveAccount {
		t.Fatalf("expected ErrInactiveAccount before verification, got %v", err)
	}
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, _, _ = svc.Register(context.Background(), "a@x.com", "pw1", "")

	if _, _, err := svc.Login(context.Background(), "ghost@x.com", "pw1"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "a@x.com", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}

func TestAuthService_Login_PasswordlessAccount(t *testing.T) {
	svc, _, _, provider := newTestService(t)
	provider.identity = &ports.ProviderIdentity{Email: "fed@x.com", FullName: "Fed", SubjectID: "g-123"}

	if _, _, err := svc.GoogleLogin(context.Background(), "provider-token"); err != nil {
		t.Fatalf("google login: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "fed@x.com", "anything"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for passwordless account, got %v", err)
	}
}

func TestAuthService_VerifyEmail_ActivatesOnce(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, token, err := svc.Register(context.Background(), "a@x.com", "pw1", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.VerifyEmail(context.Background(), token)
	if err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	if !user.IsActive || !user.EmailVerified {
		t.Fatalf("account not activated: %+v", user)
	}

	if _, err := svc.VerifyEmail(context.Background(), token); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken on second redemption, got %v", err)
	}
}

func TestAuthService_VerifyEmail_Expired(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	svc.now = func() time.Time { return now }

	_, token, err := svc.Register(context.Background(), "a@x.com", "pw1", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	now = base.Add(25 * time.Hour)
	if _, err := svc.VerifyEmail(context.Background(), token); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestAuthService_ResendVerification_Supersedes(t *testing.T) {
	svc, users, _, _ := newTestService(t)

	_, first, _ := svc.Register(context.Background(), "a@x.com", "pw1", "")

	second, sent, err := svc.ResendVerification(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if !sent || second == "" || second == first {
		t.Fatalf("expected a fresh token, sent=%v token=%q", sent, second)
	}
	if users.users["a@x.com"].VerificationToken != second {
		t.Fatalf("stored token not superseded")
	}

	// The superseded token no longer redeems.
	if _, err := svc.VerifyEmail(context.Background(), first); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for superseded token, got %v", err)
	}
	if _, err := svc.VerifyEmail(context.Background(), second); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
}

func TestAuthService_ResendVerification_NoLeak(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, _, _ = svc.Register(context.Background(), "a@x.com", "pw1", "")
	_, _ = svc.VerifyEmail(context.Background(), mustToken(t, svc, "a@x.com"))

	for _, email := range []string{"ghost@x.com", "a@x.com"} {
		token, sent, err := svc.ResendVerification(context.Background(), email)
		if err != nil {
			t.Fatalf("resend %s: %v", email, err)
		}
		if sent || token != "" {
			t.Fatalf("expected silent ack for %s, got sent=%v token=%q", email, sent, token)
		}
	}
}

// mustToken re-reads the stored verification token for an email.
func mustToken(t *testing.T, svc *AuthService, email string) string {
	t.Helper()
	repo, ok := svc.users.(*stubUserRepo)
	if !ok {
		t.Fatalf("unexpected repo type")
	}
	return repo.users[email].VerificationToken
}

func TestAuthService_ForgotPassword_NoLeak(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, _, _ = svc.Register(context.Background(), "a@x.com", "pw1", "")

	_, sentKnown, err := svc.ForgotPassword(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("forgot known: %v", err)
	}
	_, sentUnknown, err := svc.ForgotPassword(context.Background(), "ghost@x.com")
	if err != nil {
		t.Fatalf("forgot unknown: %v", err)
	}
	if !sentKnown || sentUnknown {
		t.Fatalf("unexpected sent flags: known=%v unknown=%v", sentKnown, sentUnknown)
	}
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, vt, _ := svc.Register(ctx, "a@x.com", "old-pw", "")
	_, _ = svc.VerifyEmail(ctx, vt)

	token, sent, err := svc.ForgotPassword(ctx, "a@x.com")
	if err != nil || !sent {
		t.Fatalf("forgot: sent=%v err=%v", sent, err)
	}

	if err := svc.ResetPassword(ctx, token, "new-pw"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, _, err := svc.Login(ctx, "a@x.com", "old-pw"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@x.com", "new-pw"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestAuthService_ResetPassword_SingleUse(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, vt, _ := svc.Register(ctx, "a@x.com", "old-pw", "")
	_, _ = svc.VerifyEmail(ctx, vt)
	token, _, _ := svc.ForgotPassword(ctx, "a@x.com")

	if err := svc.ResetPassword(ctx, token, "pw-two"); err != nil {
		t.Fatalf("first reset: %v", err)
	}
	if err := svc.ResetPassword(ctx, token, "pw-three"); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}
}

func TestAuthService_ResetPassword_ExpiredLeavesHash(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	_, vt, _ := svc.Register(ctx, "a@x.com", "old-pw", "")
	_, _ = svc.VerifyEmail(ctx, vt)
	token, _, _ := svc.ForgotPassword(ctx, "a@x.com")

	before := users.users["a@x.com"].PasswordHash

	now = base.Add(25 * time.Hour)
	if err := svc.ResetPassword(ctx, token, "new-pw"); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
	if users.users["a@x.com"].PasswordHash != before {
		t.Fatalf("password hash changed on failed reset")
	}
}

func TestAuthService_GoogleLogin_CreatesActiveUser(t *testing.T) {
	svc, users, _, provider := newTestService(t)
	provider.identity = &ports.ProviderIdentity{Email: "fed@x.com", FullName: "Fed User", SubjectID: "g-123"}

	token, user, err := svc.GoogleLogin(context.Background(), "provider-token")
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected bearer token")
	}
	if !user.IsActive || !user.EmailVerified {
		t.Fatalf("federated account must be active and verified: %+v", user)
	}
	if user.GoogleID != "g-123" || user.PasswordHash != "" {
		t.Fatalf("unexpected federated account: %+v", user)
	}

	// Second login must reuse the account, not create a new one.
	if _, _, err := svc.GoogleLogin(context.Background(), "provider-token"); err != nil {
		t.Fatalf("second google login: %v", err)
	}
	if len(users.users) != 1 {
		t.Fatalf("expected one account, got %d", len(users.users))
	}
}

func TestAuthService_GoogleLogin_InvalidProviderToken(t *testing.T) {
	svc, _, _, provider := newTestService(t)
	provider.err = domain.ErrInvalidProviderToken

	if _, _, err := svc.GoogleLogin(context.Background(), "bad"); err != domain.ErrInvalidProviderToken {
		t.Fatalf("expected ErrInvalidProviderToken, got %v", err)
	}
}

func TestAuthService_CurrentUser(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, vt, _ := svc.Register(ctx, "a@x.com", "pw1", "Ada")
	if _, err := svc.VerifyEmail(ctx, vt); err != nil {
		t.Fatalf("verify: %v", err)
	}

	bearer, _, err := svc.Login(ctx, "a@x.com", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := svc.CurrentUser(ctx, bearer)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("expected a@x.com, got %s", user.Email)
	}

	if _, err := svc.CurrentUser(ctx, "not-a-token"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
