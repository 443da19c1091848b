package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oceanauth/auth-api/internal/core/domain"
)

// TokenCodec issues and verifies signed bearer tokens. Tokens are stateless:
// validity is fully determined by the HMAC signature and the embedded expiry.
type TokenCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec builds a codec for the given shared secret and algorithm name
// (e.g. "HS256"). Only HMAC algorithms are accepted; the key is swapped via
// configuration, never in code.
func NewTokenCodec(secret, algorithm string, defaultTTL time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token codec: empty signing secret")
	}
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("token codec: unsupported algorithm %q", algorithm)
	}
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	return &TokenCodec{
		secret:     []byte(secret),
		method:     method,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Issue signs a token carrying the subject and an absolute expiry of now+ttl.
// A non-positive ttl falls back to the codec's default.
func (c *TokenCodec) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": c.now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Verify checks signature and expiry and returns the subject. Expired,
// tampered and malformed tokens all yield domain.ErrInvalidToken without
// distinction, so callers cannot be used as a validity oracle.
func (c *TokenCodec) Verify(token string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", domain.ErrInvalidToken
	}
	return sub, nil
}
