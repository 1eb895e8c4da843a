package app

import (
	"context"

	"github.com/irenchen/auth2/internal/auth/provider"
	"github.com/irenchen/auth2/internal/auth/provider/facebook"
	"github.com/irenchen/auth2/internal/auth/provider/google"
	"github.com/irenchen/auth2/internal/config"
)

// buildProviders constructs an adapter for each OAuth provider whose
// client ID is configured. A provider with no credentials is skipped
// rather than failing startup, so a deployment can run with any
// subset (local-only included). Partial credentials are still an
// error: a configured client ID with a missing secret or redirect URL
// is a deployment mistake, not an unconfigured provider.
func buildProviders(ctx context.Context, cfg config.Config) ([]provider.OAuthProvider, error) {
	var providers []provider.OAuthProvider

	if cfg.GoogleClientID != "" {
		p, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	if cfg.FacebookClientID != "" {
		p, err := facebook.New(
			cfg.FacebookClientID,
			cfg.FacebookClientSecret,
			cfg.FacebookRedirectURL,
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	return providers, nil
}
