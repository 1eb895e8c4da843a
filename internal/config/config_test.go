package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irenchen/auth2/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://localhost/auth?sslmode=disable")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://localhost/auth?sslmode=disable")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("GOOGLE_CLIENT_ID", "gid")
	t.Setenv("FACEBOOK_CLIENT_SECRET", "fbsecret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "gid", cfg.GoogleClientID)
	assert.Equal(t, "fbsecret", cfg.FacebookClientSecret)
}

func TestLoadRequiresDSN(t *testing.T) {
	// DATABASE_DSN deliberately unset.
	t.Setenv("DATABASE_DSN", "")

	_, err := config.Load()
	assert.Error(t, err)
}
