package domain

import "time"

// User models an account in the system. Accounts start inactive and
// unverified; the account becomes active once its verification token is
// redeemed. Google-federated accounts are created active with no password hash.
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	FullName          string     `json:"full_name,omitempty"`
	IsActive          bool       `json:"is_active"`
	EmailVerified     bool       `json:"email_verified"`
	VerificationToken string     `json:"-"`
	VerificationExp   *time.Time `json:"-"`
	GoogleID          string     `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Authenticatable reports whether the account has any usable credential.
// The core never persists a user for which this is false.
func (u *User) Authenticatable() bool {
	return u.PasswordHash != "" || u.GoogleID != ""
}

// PasswordResetRequest is a single-use, time-bound grant to replace a user's
// password. Multiple requests may be outstanding for one user; each is
// independently consumed.
type PasswordResetRequest struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the request can still be redeemed at the given instant.
func (r *PasswordResetRequest) Valid(now time.Time) bool {
	return !r.Used && now.Before(r.ExpiresAt)
}
