package auth

import (
	"slices"
	"time"
)

// AuthMethod indicates how authentication was performed.
type AuthMethod string

const (
	AuthMethodNone      AuthMethod = "none"
	AuthMethodJWT       AuthMethod = "jwt"
	AuthMethodAPIKey    AuthMethod = "api_key"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// RoleAdmin may administer the analysis cache.
const RoleAdmin = "admin"

// Identity is an authenticated extension install, operator or service.
type Identity struct {
	Principal string
	Roles     []string
	Method    AuthMethod

	// Claims holds token claims or API key metadata.
	Claims map[string]any

	ExpiresAt time.Time
	IssuedAt  time.Time
}

// HasRole checks if the identity has a specific role.
func (id *Identity) HasRole(role string) bool {
	return id != nil && slices.Contains(id.Roles, role)
}

// IsExpired reports whether the identity expired at now. A zero ExpiresAt
// never expires.
func (id *Identity) IsExpired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && now.After(id.ExpiresAt)
}

// IsAnonymous returns true for anonymous or principal-less identities.
func (id *Identity) IsAnonymous() bool {
	return id == nil || id.Method == AuthMethodAnonymous || id.Principal == ""
}

// AnonymousIdentity creates an anonymous identity with the given roles.
func AnonymousIdentity(roles ...string) *Identity {
	return &Identity{
		Principal: "anonymous",
		Roles:     roles,
		Method:    AuthMethodAnonymous,
		Claims:    make(map[string]any),
	}
}
