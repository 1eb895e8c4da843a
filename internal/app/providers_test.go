package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irenchen/auth2/internal/config"
)

func TestBuildProvidersSkipsUnconfigured(t *testing.T) {
	providers, err := buildProviders(context.Background(), config.Config{})
	require.NoError(t, err)
	assert.Empty(t, providers, "no credentials means no providers, not an error")
}

func TestBuildProvidersFacebookOnly(t *testing.T) {
	cfg := config.Config{
		FacebookClientID:     "fb-id",
		FacebookClientSecret: "fb-secret",
		FacebookRedirectURL:  "https://auth.example.com/oauth/callback/facebook",
	}

	providers, err := buildProviders(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "facebook", providers[0].Name())
}

func TestBuildProvidersRejectsPartialCredentials(t *testing.T) {
	// A configured client ID with a missing secret is a deployment
	// mistake and must fail startup.
	cfg := config.Config{
		FacebookClientID: "fb-id",
	}

	_, err := buildProviders(context.Background(), cfg)
	assert.Error(t, err)
}
