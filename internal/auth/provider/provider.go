package provider

import (
	"context"

	"github.com/irenchen/auth2/internal/auth"
)

// OAuthProvider defines the contract every external auth provider
// must implement. Implementations return profile facts only and
// must not perform account creation, linking, or session management.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google", "facebook").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider
	// credentials and returns a normalized profile. No auth decisions
	// are made here. Optional profile fields stay empty when the
	// provider does not supply them; ExternalID is always set or the
	// exchange fails.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.Profile, error)
}
