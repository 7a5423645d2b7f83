package shared

import "context"

// Role enumerates caller roles supplied by the auth boundary.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleViewer   Role = "viewer"
)

// Principal is the authenticated caller attached to every request context.
type Principal struct {
	UserID int64
	FarmID int64
	Role   Role
}

// CanWrite reports whether the principal may mutate state.
func (p Principal) CanWrite() bool {
	return p.Role == RoleAdmin || p.Role == RoleEmployee
}

// ResolveFarm checks the requested farm against the principal's tenancy.
// Admins may operate across farms; everyone else is confined to their own
// farm, and a mismatch reads as a missing resource rather than a permission
// failure so existence is not leaked.
func (p Principal) ResolveFarm(farmID int64) (int64, error) {
	if farmID <= 0 {
		return 0, E(KindValidation, "farm id is required")
	}
	if p.Role != RoleAdmin && farmID != p.FarmID {
		return 0, E(KindNotFound, "farm %d not found", farmID)
	}
	return farmID, nil
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
