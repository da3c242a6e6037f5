// Package auth resolves the caller of an API request from a bearer token.
//
// Session issuance lives elsewhere; this package only verifies HS256 tokens
// carrying the principal id in "sub" and the role in "role".
package auth

import "context"

// Role is the kind of principal acting on a listing.
type Role string

const (
	RoleAgent     Role = "agent"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAgent || r == RoleModerator
}

// Principal is an authenticated caller.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsModerator reports whether p may act on the moderation queue.
func (p Principal) IsModerator() bool { return p.Role == RoleModerator }

// IsAgent reports whether p may own listings.
func (p Principal) IsAgent() bool { return p.Role == RoleAgent }

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
