package resolver

import (
	"context"
	"errors"

	"github.com/irenchen/auth2/internal/auth"
)

var (
	// ErrDuplicateIdentity means signup hit an email already attached
	// to a local identity.
	ErrDuplicateIdentity = errors.New("identity already taken")

	// ErrNoSuchAccount means login referenced an unknown identity.
	ErrNoSuchAccount = errors.New("no account for identity")

	// ErrBadCredential means the account exists but the secret was wrong.
	ErrBadCredential = errors.New("bad credential")

	// ErrMalformedProfile means the provider payload is missing the
	// required external ID.
	ErrMalformedProfile = errors.New("provider profile missing external id")
)

// Resolver decides which account an incoming credential belongs to.
// It is the ONLY place where identity-to-account mapping logic lives.
// The four sentinel errors above are expected outcomes for the route
// layer to translate; anything else is a storage fault and fatal to
// the request.
type Resolver interface {
	// SignupLocal creates a new account for a previously unseen email.
	SignupLocal(ctx context.Context, email, password string) (*auth.Account, error)

	// LoginLocal authenticates an existing local identity.
	LoginLocal(ctx context.Context, email, password string) (*auth.Account, error)

	// ResolveOAuth handles a provider callback. With current == nil the
	// profile resolves to an existing or freshly created account; with
	// current set the profile is linked onto current.
	ResolveOAuth(ctx context.Context, profile *auth.Profile, current *auth.Account) (*auth.Account, error)

	// Unlink detaches the credential material of one identity slot
	// while keeping the account and the slot's external ID.
	Unlink(ctx context.Context, current *auth.Account, kind auth.ProviderKind) (*auth.Account, error)
}
