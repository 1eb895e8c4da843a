package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/irenchen/auth2/internal/auth"
)

// Memory is an in-process Store used by tests and local development.
// It enforces the same (provider, external_id) uniqueness the Postgres
// constraint does, and hands out clones so callers never alias its
// internal state.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]*auth.Account
	index    map[string]string // identityKey -> account ID
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]*auth.Account),
		index:    make(map[string]string),
	}
}

func identityKey(kind auth.ProviderKind, externalID string) string {
	return string(kind) + "\x00" + externalID
}

func (m *Memory) FindByIdentity(
	_ context.Context,
	kind auth.ProviderKind,
	externalID string,
) (*auth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.index[identityKey(kind, externalID)]
	if !ok {
		return nil, ErrNotFound
	}
	return m.accounts[id].Clone(), nil
}

func (m *Memory) FindByID(_ context.Context, id string) (*auth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return account.Clone(), nil
}

func (m *Memory) Create(
	_ context.Context,
	kind auth.ProviderKind,
	ident *auth.Identity,
) (*auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := identityKey(kind, ident.ExternalID)
	if _, taken := m.index[key]; taken {
		return nil, ErrConflict
	}

	account := &auth.Account{ID: uuid.NewString()}
	cp := *ident
	account.SetIdentity(kind, &cp)

	m.accounts[account.ID] = account.Clone()
	m.index[key] = account.ID

	return account, nil
}

func (m *Memory) Persist(_ context.Context, account *auth.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := account.Clone()

	// Reassign identity rows, dropping the slot from any previous
	// owner (link-overwrite behavior).
	for kind, ident := range stored.Identities {
		key := identityKey(kind, ident.ExternalID)
		if ownerID, ok := m.index[key]; ok && ownerID != stored.ID {
			if owner := m.accounts[ownerID]; owner != nil {
				delete(owner.Identities, kind)
			}
		}
		m.index[key] = stored.ID
	}

	// Drop index entries for external IDs this account no longer holds.
	if prev, ok := m.accounts[stored.ID]; ok {
		for kind, ident := range prev.Identities {
			cur := stored.Identity(kind)
			if cur == nil || cur.ExternalID != ident.ExternalID {
				key := identityKey(kind, ident.ExternalID)
				if m.index[key] == stored.ID {
					delete(m.index, key)
				}
			}
		}
	}

	m.accounts[stored.ID] = stored
	return nil
}
