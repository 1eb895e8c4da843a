package auth

// Profile represents a normalized external authentication identity
// returned by an OAuth provider. It contains facts only, no decisions.
// DisplayName and Email are best-effort and may be empty; ExternalID
// is required and validated by the resolver before any store access.
type Profile struct {
	Kind        ProviderKind // e.g. "google", "facebook"
	ExternalID  string       // provider-scoped unique user identifier (sub)
	DisplayName string       // best-effort human-readable name
	Email       string       // email returned by provider, if any
	AccessToken string       // current provider access token
}
