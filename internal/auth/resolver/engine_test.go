package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irenchen/auth2/internal/auth"
	"github.com/irenchen/auth2/internal/auth/resolver"
	"github.com/irenchen/auth2/internal/auth/store"
)

func newEngine(t *testing.T) (*resolver.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return resolver.NewEngine(mem), mem
}

func googleProfile(externalID string) *auth.Profile {
	return &auth.Profile{
		Kind:        auth.KindGoogle,
		ExternalID:  externalID,
		DisplayName: "Alice Example",
		Email:       "alice@example.com",
		AccessToken: "tok-" + externalID,
	}
}

func TestSignupThenLoginSameAccount(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	created, err := engine.SignupLocal(ctx, "a@x.com", "password1")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.Linked(auth.KindLocal))

	loggedIn, err := engine.LoginLocal(ctx, "a@x.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loggedIn.ID)
}

func TestSignupNormalizesEmail(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	created, err := engine.SignupLocal(ctx, "  A@X.com ", "password1")
	require.NoError(t, err)

	loggedIn, err := engine.LoginLocal(ctx, "a@x.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loggedIn.ID)
}

func TestSignupImposesNoPasswordPolicy(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	// Password strength is route-layer policy; the engine hashes
	// whatever it is handed.
	created, err := engine.SignupLocal(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	loggedIn, err := engine.LoginLocal(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loggedIn.ID)
}

func TestSignupDuplicateEmail(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	_, err := engine.SignupLocal(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	_, err = engine.SignupLocal(ctx, "a@x.com", "different-password")
	assert.ErrorIs(t, err, resolver.ErrDuplicateIdentity)
}

func TestSignupStoresNoPlaintext(t *testing.T) {
	engine, mem := newEngine(t)
	ctx := context.Background()

	created, err := engine.SignupLocal(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	stored, err := mem.FindByID(ctx, created.ID)
	require.NoError(t, err)

	secret := stored.Identity(auth.KindLocal).Secret
	assert.NotEmpty(t, secret)
	assert.NotContains(t, secret, "password1")
}

func TestLoginFailures(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	_, err := engine.SignupLocal(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"wrong password", "a@x.com", "wrong-password", resolver.ErrBadCredential},
		{"unknown email", "nobody@x.com", "password1", resolver.ErrNoSuchAccount},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.LoginLocal(ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoginAfterLocalUnlink(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	account, err := engine.SignupLocal(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	_, err = engine.Unlink(ctx, account, auth.KindLocal)
	require.NoError(t, err)

	_, err = engine.LoginLocal(ctx, "a@x.com", "password1")
	assert.ErrorIs(t, err, resolver.ErrNoSuchAccount)
}

func TestOAuthFirstSeenCreatesOneAccount(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	first, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), nil)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	ident := first.Identity(auth.KindGoogle)
	require.NotNil(t, ident)
	assert.Equal(t, "g-1", ident.ExternalID)
	assert.Equal(t, "tok-g-1", ident.Secret)

	// A repeat callback never creates a second account.
	second, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestOAuthRepeatDoesNotOverwriteProfile(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	first, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), nil)
	require.NoError(t, err)

	changed := googleProfile("g-1")
	changed.DisplayName = "Someone Else"
	changed.AccessToken = "tok-new"

	second, err := engine.ResolveOAuth(ctx, changed, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alice Example", second.Identity(auth.KindGoogle).DisplayName)
	assert.Equal(t, "tok-g-1", second.Identity(auth.KindGoogle).Secret)
}

func TestUnlinkThenCallbackBackfills(t *testing.T) {
	engine, mem := newEngine(t)
	ctx := context.Background()

	account, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), nil)
	require.NoError(t, err)

	unlinked, err := engine.Unlink(ctx, account, auth.KindGoogle)
	require.NoError(t, err)
	assert.False(t, unlinked.Linked(auth.KindGoogle))

	// Unlink never deletes the account.
	kept, err := mem.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "g-1", kept.Identity(auth.KindGoogle).ExternalID)

	// A later callback backfills the slot on the same account
	// instead of creating a new one.
	relinked, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), nil)
	require.NoError(t, err)
	assert.Equal(t, account.ID, relinked.ID)
	assert.Equal(t, "tok-g-1", relinked.Identity(auth.KindGoogle).Secret)
	assert.Equal(t, "Alice Example", relinked.Identity(auth.KindGoogle).DisplayName)
}

func TestUnlinkMissingSlotIsIdempotent(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	account, err := engine.SignupLocal(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	same, err := engine.Unlink(ctx, account, auth.KindFacebook)
	require.NoError(t, err)
	assert.Equal(t, account.ID, same.ID)
}

func TestLinkAttachesProviderToCurrentAccount(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	account, err := engine.SignupLocal(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	linked, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), account)
	require.NoError(t, err)
	assert.Equal(t, account.ID, linked.ID)
	assert.Equal(t, "g-1", linked.Identity(auth.KindGoogle).ExternalID)

	// An anonymous callback with the same external ID now resolves
	// to the linked account, not a new one.
	resolved, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), nil)
	require.NoError(t, err)
	assert.Equal(t, account.ID, resolved.ID)
}

func TestLinkOverwritesSlotFromOtherAccount(t *testing.T) {
	engine, mem := newEngine(t)
	ctx := context.Background()

	// acct2 owns the google identity first.
	acct2, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), nil)
	require.NoError(t, err)

	acct1, err := engine.SignupLocal(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	// Linking while authenticated as acct1 reassigns the identity;
	// no duplicate check is performed on this path.
	linked, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), acct1)
	require.NoError(t, err)
	assert.Equal(t, acct1.ID, linked.ID)

	// acct2 still exists but lost the slot.
	orphaned, err := mem.FindByID(ctx, acct2.ID)
	require.NoError(t, err)
	assert.Nil(t, orphaned.Identity(auth.KindGoogle))

	resolved, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), nil)
	require.NoError(t, err)
	assert.Equal(t, acct1.ID, resolved.ID)
}

func TestMalformedProfile(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	_, err := engine.ResolveOAuth(ctx, nil, nil)
	assert.ErrorIs(t, err, resolver.ErrMalformedProfile)

	_, err = engine.ResolveOAuth(ctx, &auth.Profile{Kind: auth.KindGoogle}, nil)
	assert.ErrorIs(t, err, resolver.ErrMalformedProfile)
}

// conflictingStore forces Create to lose the uniqueness race once,
// simulating a concurrent signup hitting the store constraint.
type conflictingStore struct {
	*store.Memory
	conflicts int
}

func (c *conflictingStore) Create(
	ctx context.Context,
	kind auth.ProviderKind,
	ident *auth.Identity,
) (*auth.Account, error) {
	if c.conflicts > 0 {
		c.conflicts--
		// The winner's account appears before the conflict surfaces.
		if _, err := c.Memory.Create(ctx, kind, ident); err != nil {
			return nil, err
		}
		return nil, store.ErrConflict
	}
	return c.Memory.Create(ctx, kind, ident)
}

func TestOAuthCreateConflictTakesFoundPath(t *testing.T) {
	racy := &conflictingStore{Memory: store.NewMemory(), conflicts: 1}
	engine := resolver.NewEngine(racy)
	ctx := context.Background()

	account, err := engine.ResolveOAuth(ctx, googleProfile("g-1"), nil)
	require.NoError(t, err)

	winner, err := racy.FindByIdentity(ctx, auth.KindGoogle, "g-1")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, account.ID)
}

func TestSignupCreateConflictIsDuplicate(t *testing.T) {
	racy := &conflictingStore{Memory: store.NewMemory(), conflicts: 1}
	engine := resolver.NewEngine(racy)
	ctx := context.Background()

	_, err := engine.SignupLocal(ctx, "a@x.com", "password1")
	assert.ErrorIs(t, err, resolver.ErrDuplicateIdentity)
}

// The full walkthrough: local signup and login, a separate OAuth
// account, then a link that orphans it.
func TestResolutionScenario(t *testing.T) {
	engine, mem := newEngine(t)
	ctx := context.Background()

	acct1, err := engine.SignupLocal(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	again, err := engine.LoginLocal(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	require.Equal(t, acct1.ID, again.ID)

	_, err = engine.LoginLocal(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, resolver.ErrBadCredential)

	p1 := &auth.Profile{
		Kind:        auth.KindFacebook,
		ExternalID:  "p1",
		DisplayName: "Alice FB",
		AccessToken: "fb-token",
	}

	acct2, err := engine.ResolveOAuth(ctx, p1, nil)
	require.NoError(t, err)
	require.NotEqual(t, acct1.ID, acct2.ID)

	linked, err := engine.ResolveOAuth(ctx, p1, acct1)
	require.NoError(t, err)
	require.Equal(t, acct1.ID, linked.ID)
	require.Equal(t, "p1", linked.Identity(auth.KindFacebook).ExternalID)

	// acct2 is orphaned but persisted.
	_, err = mem.FindByID(ctx, acct2.ID)
	require.NoError(t, err)
}
