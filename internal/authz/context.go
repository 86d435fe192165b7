package authz

import "context"

// TokenStatus is the outcome of validating a bearer token.
type TokenStatus string

const (
	TokenMissing TokenStatus = "missing"
	TokenValid   TokenStatus = "valid"
	TokenExpired TokenStatus = "expired"
	TokenInvalid TokenStatus = "invalid"
)

// Identity is an actor proven by a valid session token.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	// UserType is the account type exactly as signed into the token.
	UserType string `json:"user_type"`
	Role     Role   `json:"-"`
}

// Context carries the authorization evidence of one request.
//
// Identity is verified. ActingRole is self-asserted by the client and may only
// narrow what a request is allowed to do.
type Context struct {
	Identity    *Identity
	TokenStatus TokenStatus
	// ActingRole is the lower-cased role claimed via X-Acting-Role or the body.
	ActingRole string
	// TrustActingAdmin lets a self-asserted admin role grant admin privileges.
	TrustActingAdmin bool
}

// Anonymous returns a context without any evidence.
func Anonymous() *Context {
	return &Context{TokenStatus: TokenMissing}
}

func (c *Context) acting() Role {
	if c == nil {
		return RoleNone
	}
	role, _ := ParseRole(c.ActingRole)
	return role
}

// Is reports whether either the verified identity or the acting role is role.
// Use it to restrict, never to grant.
func (c *Context) Is(role Role) bool {
	if c == nil {
		return false
	}
	if c.Identity != nil && c.Identity.Role == role {
		return true
	}
	return c.acting() == role
}

// Verified returns the token identity when it holds the given role.
func (c *Context) Verified(role Role) (*Identity, bool) {
	if c == nil || c.Identity == nil || c.Identity.Role != role {
		return nil, false
	}
	return c.Identity, true
}

// IsAdmin reports whether the request carries admin privileges.
func (c *Context) IsAdmin() bool {
	if c == nil {
		return false
	}
	if c.Is(RoleProgramHead) {
		return false
	}
	if _, ok := c.Verified(RoleAdmin); ok {
		return true
	}
	return c.TrustActingAdmin && c.acting() == RoleAdmin
}

// EffectiveRole is the most restrictive role the request presents.
func (c *Context) EffectiveRole() Role {
	switch {
	case c.Is(RoleProgramHead):
		return RoleProgramHead
	case c.acting() != RoleNone:
		return c.acting()
	case c != nil && c.Identity != nil:
		return c.Identity.Role
	}
	return RoleNone
}

type contextKey struct{}

// WithContext stores ac in ctx.
func WithContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

// FromContext returns the authorization context stored in ctx, or an anonymous one.
func FromContext(ctx context.Context) *Context {
	if ac, ok := ctx.Value(contextKey{}).(*Context); ok && ac != nil {
		return ac
	}
	return Anonymous()
}
