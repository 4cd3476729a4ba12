package domain

// Identity is the authenticated principal attached to a request.
// It is rebuilt from the presented credential on every request and never persisted.
type Identity struct {
	ID               string
	Email            string
	Role             Role
	DisplayName      string
	PhotoURL         string
	EmailVerified    *bool
	CustomAttributes map[string]any
}

// HasRole reports whether the identity holds one of the given roles.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// Attributes flattens the identity into the map exposed to handlers and clients.
// Custom attributes never override the canonical fields.
func (i *Identity) Attributes() map[string]any {
	out := make(map[string]any, len(i.CustomAttributes)+6)
	for k, v := range i.CustomAttributes {
		out[k] = v
	}
	out["id"] = i.ID
	out["email"] = i.Email
	out["role"] = i.Role
	if i.DisplayName != "" {
		out["displayName"] = i.DisplayName
	}
	if i.PhotoURL != "" {
		out["photoURL"] = i.PhotoURL
	}
	if i.EmailVerified != nil {
		out["emailVerified"] = *i.EmailVerified
	}
	return out
}

// ProviderIdentity is the record returned by the external identity provider
// after verifying an identity token.
type ProviderIdentity struct {
	PrincipalID      string
	Email            string
	EmailVerified    bool
	DisplayName      string
	PhotoURL         string
	CustomAttributes map[string]any
}

// AuthState is the outcome of a guard: either an authenticated identity or anonymous.
type AuthState struct {
	identity *Identity
}

// Authenticated wraps a resolved identity.
func Authenticated(identity *Identity) AuthState {
	return AuthState{identity: identity}
}

// Anonymous is the state of a request that presented no usable credential.
func Anonymous() AuthState {
	return AuthState{}
}

// Identity returns the attached identity, if any.
func (s AuthState) Identity() (*Identity, bool) {
	return s.identity, s.identity != nil
}

// IsAuthenticated reports whether an identity is attached.
func (s AuthState) IsAuthenticated() bool {
	return s.identity != nil
}
