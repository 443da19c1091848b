// Package identity implements the federated identity-provider port against
// Google's OAuth2 userinfo endpoint.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oceanauth/auth-api/internal/core/domain"
	"github.com/oceanauth/auth-api/internal/core/ports"
)

const (
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	defaultTimeout     = 5 * time.Second
)

// GoogleProvider exchanges a Google access token for the verified identity it
// was issued to.
type GoogleProvider struct {
	client      *http.Client
	userinfoURL string
}

// Config captures the settings for the Google userinfo exchange. URL is
// overridable for tests; Timeout bounds the upstream call.
type Config struct {
	UserinfoURL string
	Timeout     time.Duration
}

func NewGoogleProvider(cfg Config) *GoogleProvider {
	url := cfg.UserinfoURL
	if url == "" {
		url = defaultUserinfoURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GoogleProvider{
		client:      &http.Client{Timeout: timeout},
		userinfoURL: url,
	}
}

type userinfoResponse struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Exchange calls the userinfo endpoint with the provider token as bearer.
// A non-2xx response maps to domain.ErrInvalidProviderToken; transport
// failures and timeouts map to domain.ErrProviderUnavailable so the caller can
// treat them as retryable.
func (p *GoogleProvider) Exchange(ctx context.Context, providerToken string) (*ports.ProviderIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+providerToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Join(domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrInvalidProviderToken
	}

	var info userinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, domain.ErrInvalidProviderToken
	}
	if info.Email == "" || info.Sub == "" {
		return nil, domain.ErrInvalidProviderToken
	}

	return &ports.ProviderIdentity{
		Email:     info.Email,
		FullName:  info.Name,
		SubjectID: info.Sub,
	}, nil
}
