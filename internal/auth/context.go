// internal/auth/context.go
//
// Caller identity carried in the request context.
//
// Usage
// -----
//     // Attach the authenticated caller (after token check).
//     ctx = auth.WithPrincipal(ctx, auth.Principal{Subject: "ops", Roles: []string{"admin"}})
//
//     // Downstream code retrieves it.
//     p, ok := auth.FromContext(ctx)
//
// Notes
// -----
// • Principal is a value type; handlers must not mutate Roles.

package auth

import "context"

// Principal is an authenticated caller.
type Principal struct {
	Subject string
	Roles   []string
}

// HasRole reports whether p carries role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// principalKey is unexported to avoid context-key collisions.
type principalKey struct{}

// WithPrincipal returns a new context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext extracts the caller.  It returns (Principal{}, false) if no
// caller is set.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
