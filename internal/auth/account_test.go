package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irenchen/auth2/internal/auth"
)

func TestAccountIdentitySlots(t *testing.T) {
	account := &auth.Account{ID: "acct-1"}

	assert.Nil(t, account.Identity(auth.KindGoogle))
	assert.False(t, account.Linked(auth.KindGoogle))

	account.SetIdentity(auth.KindGoogle, &auth.Identity{
		ExternalID: "g-1",
		Secret:     "token",
	})

	require.NotNil(t, account.Identity(auth.KindGoogle))
	assert.True(t, account.Linked(auth.KindGoogle))

	// An unlinked slot keeps its external ID but is no longer linked.
	account.Identity(auth.KindGoogle).Secret = ""
	assert.False(t, account.Linked(auth.KindGoogle))
	assert.Equal(t, "g-1", account.Identity(auth.KindGoogle).ExternalID)
}

func TestAccountClone(t *testing.T) {
	account := &auth.Account{ID: "acct-1"}
	account.SetIdentity(auth.KindLocal, &auth.Identity{
		ExternalID: "a@x.com",
		Secret:     "hash",
	})

	clone := account.Clone()
	clone.Identity(auth.KindLocal).Secret = "tampered"

	assert.Equal(t, "hash", account.Identity(auth.KindLocal).Secret)
	assert.Equal(t, account.ID, clone.ID)
}

func TestNilSafety(t *testing.T) {
	var account *auth.Account
	assert.Nil(t, account.Identity(auth.KindLocal))
	assert.Nil(t, account.Clone())

	var ident *auth.Identity
	assert.False(t, ident.Linked())
}
