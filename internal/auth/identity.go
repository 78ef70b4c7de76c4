package auth

import "context"

// Identity is the trusted request-scoped view of the caller, built exactly
// once per request from validated claims and immutable afterwards.
type Identity struct {
	UserID   string
	TenantID string // empty for super-admin identities
	Email    string
	Name     string
	Role     Role
}

// IdentityFromClaims materializes an Identity from validated claims. The role
// string inside a verified token is trusted but downgraded to viewer when
// unrecognized.
func IdentityFromClaims(claims *Claims) Identity {
	return Identity{
		UserID:   claims.Subject,
		TenantID: claims.TenantID,
		Email:    claims.Email,
		Name:     claims.Email,
		Role:     RoleOrViewer(claims.Role),
	}
}

type identityContextKey struct{}
type claimsContextKey struct{}

// ContextWithIdentity attaches the request identity to the context.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, &identity)
}

// IdentityFromContext extracts the request identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || v == nil {
		return Identity{}, false
	}
	return *v, true
}

// ContextWithClaims stores the raw validated claims for downstream consumers
// that need the token id or expiry.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the validated claims if previously attached.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	if ctx == nil {
		return nil, false
	}
	v, ok := ctx.Value(claimsContextKey{}).(*Claims)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
