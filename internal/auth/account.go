package auth

// ProviderKind tags the namespace an external identity belongs to.
type ProviderKind string

const (
	KindLocal    ProviderKind = "local"
	KindGoogle   ProviderKind = "google"
	KindFacebook ProviderKind = "facebook"
)

// Kinds lists every provider namespace the service understands, in a
// stable order (used when persisting identity slots).
func Kinds() []ProviderKind {
	return []ProviderKind{KindLocal, KindGoogle, KindFacebook}
}

// Identity is one provider's credential material and profile attached
// to an Account. Secret holds the bcrypt hash for the local provider
// and the access token for OAuth providers; it is cleared on unlink
// while ExternalID stays so a later callback can re-attach the slot.
type Identity struct {
	ExternalID  string
	Secret      string
	DisplayName string
	Email       string
}

// Linked reports whether the slot still carries credential material.
// An identity with an ExternalID but no Secret was unlinked.
func (i *Identity) Linked() bool {
	return i != nil && i.Secret != ""
}

// Account is the long-lived user record. ID is assigned at creation
// and never changes; identity slots come and go around it. Accounts
// are never deleted by this service.
type Account struct {
	ID         string
	Identities map[ProviderKind]*Identity
}

// Identity returns the slot for kind, or nil when none is attached.
func (a *Account) Identity(kind ProviderKind) *Identity {
	if a == nil || a.Identities == nil {
		return nil
	}
	return a.Identities[kind]
}

// SetIdentity overwrites the slot for kind.
func (a *Account) SetIdentity(kind ProviderKind, ident *Identity) {
	if a.Identities == nil {
		a.Identities = make(map[ProviderKind]*Identity)
	}
	a.Identities[kind] = ident
}

// Linked reports whether the account has usable credentials for kind.
func (a *Account) Linked(kind ProviderKind) bool {
	return a.Identity(kind).Linked()
}

// Clone returns a deep copy. Stores hand out clones so callers can
// mutate an account freely before persisting it back.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := &Account{
		ID:         a.ID,
		Identities: make(map[ProviderKind]*Identity, len(a.Identities)),
	}
	for kind, ident := range a.Identities {
		if ident == nil {
			continue
		}
		cp := *ident
		out.Identities[kind] = &cp
	}
	return out
}
