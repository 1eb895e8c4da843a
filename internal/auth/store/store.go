package store

import (
	"context"
	"errors"

	"github.com/irenchen/auth2/internal/auth"
)

var (
	// ErrNotFound means no account matched the lookup.
	ErrNotFound = errors.New("store: account not found")

	// ErrConflict means Create lost a uniqueness race on
	// (provider, external_id); callers re-query and take the
	// found path.
	ErrConflict = errors.New("store: identity already exists")
)

// Store is the identity store adapter. Implementations (Postgres,
// in-memory) must enforce (provider, external_id) uniqueness across
// accounts; the resolver relies on Create surfacing ErrConflict to
// stay correct under concurrent signups. Any error other than the
// two sentinels is a storage fault and fatal to the request.
type Store interface {
	// FindByIdentity returns the account holding the given external
	// identity, or ErrNotFound.
	FindByIdentity(ctx context.Context, kind auth.ProviderKind, externalID string) (*auth.Account, error)

	// FindByID returns the account by its durable ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*auth.Account, error)

	// Create allocates a fresh account with a single identity slot.
	// Returns ErrConflict when (kind, externalID) is already taken.
	Create(ctx context.Context, kind auth.ProviderKind, ident *auth.Identity) (*auth.Account, error)

	// Persist writes back every identity slot of the account.
	// A (provider, external_id) row held by another account is
	// reassigned to this one; that is the documented link-overwrite
	// behavior, not an error.
	Persist(ctx context.Context, account *auth.Account) error
}
