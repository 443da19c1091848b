package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const opaqueTokenBytes = 32

// NewOpaqueToken returns a URL-safe random string with 32 bytes of entropy,
// used as single-use verification and reset tokens.
func NewOpaqueToken() (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("opaque token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
