package credentials_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irenchen/auth2/internal/auth/credentials"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := credentials.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, credentials.Verify(hash, "correct horse battery staple"))
	assert.Error(t, credentials.Verify(hash, "wrong password"))
}

func TestHashSaltsPerCall(t *testing.T) {
	first, err := credentials.Hash("password1")
	require.NoError(t, err)

	second, err := credentials.Hash("password1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, credentials.Verify(first, "password1"))
	assert.NoError(t, credentials.Verify(second, "password1"))
}

func TestHashAcceptsAnyLength(t *testing.T) {
	// No strength policy here; short secrets hash and verify like any
	// other, and policy lives in the route layer.
	hash, err := credentials.Hash("pw1")
	require.NoError(t, err)

	assert.NoError(t, credentials.Verify(hash, "pw1"))
	assert.Error(t, credentials.Verify(hash, "pw2"))
}

func TestHashNeverEchoesPlaintext(t *testing.T) {
	hash, err := credentials.Hash("password1")
	require.NoError(t, err)
	assert.NotContains(t, hash, "password1")
}
