package ports

import "context"

// ProviderIdentity is the verified identity returned by a federated provider.
type ProviderIdentity struct {
	Email     string
	FullName  string
	SubjectID string
}

// IdentityProvider exchanges a provider-issued token for a verified identity.
type IdentityProvider interface {
	// Exchange returns domain.ErrInvalidProviderToken when the provider
	// rejects the token and domain.ErrProviderUnavailable when it cannot be
	// reached.
	Exchange(ctx context.Context, providerToken string) (*ProviderIdentity, error)
}
