package http

import (
	"context"

	"github.com/example/smartroom/internal/persistence"
)

// Principal identifies the authenticated caller for the duration of a request.
type Principal struct {
	UserID   string
	Username string
	Role     persistence.UserRole
}

// IsAdmin reports whether the principal may perform administrative mutations.
func (p Principal) IsAdmin() bool {
	return p.Role == persistence.RoleAdmin
}

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(Principal)
	return principal, ok
}
