package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/irenchen/auth2/internal/auth"
	"github.com/irenchen/auth2/internal/auth/credentials"
	"github.com/irenchen/auth2/internal/auth/store"
	"github.com/irenchen/auth2/internal/logger"
)

// Engine is the canonical Resolver. Every decision is single-shot:
// at most one lookup plus one create-or-persist per call, no retries
// beyond recovering a lost create race, no transactions spanning
// store calls.
type Engine struct {
	store store.Store
}

func NewEngine(store store.Store) *Engine {
	return &Engine{store: store}
}

func (e *Engine) SignupLocal(
	ctx context.Context,
	email string,
	password string,
) (*auth.Account, error) {

	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrMalformedProfile
	}

	_, err := e.store.FindByIdentity(ctx, auth.KindLocal, email)
	if err == nil {
		return nil, ErrDuplicateIdentity
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("signup lookup: %w", err)
	}

	hash, err := credentials.Hash(password)
	if err != nil {
		return nil, err
	}

	account, err := e.store.Create(ctx, auth.KindLocal, &auth.Identity{
		ExternalID: email,
		Secret:     hash,
		Email:      email,
	})
	if errors.Is(err, store.ErrConflict) {
		// Lost a signup race; the identity exists now, which for
		// signup means the email is taken.
		return nil, ErrDuplicateIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("signup create: %w", err)
	}

	logger.Info("account created", map[string]any{
		"account_id": account.ID,
		"provider":   string(auth.KindLocal),
	})

	return account, nil
}

func (e *Engine) LoginLocal(
	ctx context.Context,
	email string,
	password string,
) (*auth.Account, error) {

	email = normalizeEmail(email)

	account, err := e.store.FindByIdentity(ctx, auth.KindLocal, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSuchAccount
	}
	if err != nil {
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	ident := account.Identity(auth.KindLocal)
	if ident == nil || ident.Secret == "" {
		// Slot exists but was unlinked; no password to check against.
		return nil, ErrNoSuchAccount
	}

	if err := credentials.Verify(ident.Secret, password); err != nil {
		return nil, ErrBadCredential
	}

	return account, nil
}

func (e *Engine) ResolveOAuth(
	ctx context.Context,
	profile *auth.Profile,
	current *auth.Account,
) (*auth.Account, error) {

	if profile == nil || profile.ExternalID == "" {
		return nil, ErrMalformedProfile
	}

	if current != nil {
		return e.link(ctx, profile, current)
	}

	account, err := e.store.FindByIdentity(ctx, profile.Kind, profile.ExternalID)
	if errors.Is(err, store.ErrNotFound) {
		return e.createFromProfile(ctx, profile)
	}
	if err != nil {
		return nil, fmt.Errorf("oauth lookup: %w", err)
	}

	ident := account.Identity(profile.Kind)
	if ident.Linked() {
		// Plain repeat login: stored profile fields win, token is
		// not rotated.
		return account, nil
	}

	// Previously unlinked slot: backfill credential material and
	// profile fields, same account.
	ident.Secret = profile.AccessToken
	ident.DisplayName = profile.DisplayName
	ident.Email = profile.Email

	if err := e.store.Persist(ctx, account); err != nil {
		return nil, fmt.Errorf("oauth backfill: %w", err)
	}

	logger.Info("identity re-linked", map[string]any{
		"account_id": account.ID,
		"provider":   string(profile.Kind),
	})

	return account, nil
}

// link overwrites the caller's identity slot with the presented
// profile, unconditionally. No lookup is done first, so an external ID
// already attached to a different account is silently reassigned to
// the caller; the previous owner keeps its account but loses the slot.
func (e *Engine) link(
	ctx context.Context,
	profile *auth.Profile,
	current *auth.Account,
) (*auth.Account, error) {

	current.SetIdentity(profile.Kind, &auth.Identity{
		ExternalID:  profile.ExternalID,
		Secret:      profile.AccessToken,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
	})

	if err := e.store.Persist(ctx, current); err != nil {
		return nil, fmt.Errorf("link persist: %w", err)
	}

	logger.Info("identity linked", map[string]any{
		"account_id": current.ID,
		"provider":   string(profile.Kind),
	})

	return current, nil
}

func (e *Engine) Unlink(
	ctx context.Context,
	current *auth.Account,
	kind auth.ProviderKind,
) (*auth.Account, error) {

	ident := current.Identity(kind)
	if ident == nil {
		// Nothing attached; unlink is idempotent.
		return current, nil
	}

	// Keep the external ID so a later callback backfills this slot
	// instead of creating a new account.
	ident.Secret = ""

	if err := e.store.Persist(ctx, current); err != nil {
		return nil, fmt.Errorf("unlink persist: %w", err)
	}

	logger.Info("identity unlinked", map[string]any{
		"account_id": current.ID,
		"provider":   string(kind),
	})

	return current, nil
}

func (e *Engine) createFromProfile(
	ctx context.Context,
	profile *auth.Profile,
) (*auth.Account, error) {

	account, err := e.store.Create(ctx, profile.Kind, &auth.Identity{
		ExternalID:  profile.ExternalID,
		Secret:      profile.AccessToken,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
	})

	if errors.Is(err, store.ErrConflict) {
		// Lost the create race to a concurrent callback; whoever won
		// owns the identity now, so take the found path.
		account, err = e.store.FindByIdentity(ctx, profile.Kind, profile.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("oauth re-query after conflict: %w", err)
		}
		return account, nil
	}
	if err != nil {
		return nil, fmt.Errorf("oauth create: %w", err)
	}

	logger.Info("account created", map[string]any{
		"account_id": account.ID,
		"provider":   string(profile.Kind),
	})

	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
