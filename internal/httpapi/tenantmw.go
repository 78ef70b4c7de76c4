package httpapi

import (
	"errors"
	"net/http"

	"github.com/NiceGuyIT/psa-sub001/internal/apperr"
	"github.com/NiceGuyIT/psa-sub001/internal/auth"
	"github.com/NiceGuyIT/psa-sub001/internal/obs"
	"github.com/NiceGuyIT/psa-sub001/internal/tenant"
)

// requireTenant resolves and enforces the tenant scope. It must run after
// withAuth; a missing identity is an internal contract violation, not a 401.
// Super-admin identities pass through with no lookup and no tenant attached.
// Everyone else needs a tenant id in their identity, a tenant row behind it,
// and an accessible tenant status.
func (a *API) requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			handleError(w, r, apperr.Internal("identity missing from request scope", nil))
			return
		}

		if identity.Role == auth.RoleSuperAdmin {
			next.ServeHTTP(w, r)
			return
		}

		if identity.TenantID == "" {
			obs.CountAuthFailure(apperr.KindAuthorizationDenied.String())
			handleError(w, r, apperr.AuthorizationDenied("tenant context required"))
			return
		}

		t, err := a.tenants.Find(r.Context(), identity.TenantID)
		if err != nil {
			if errors.Is(err, tenant.ErrNotFound) {
				obs.CountAuthFailure(apperr.KindTenantNotFound.String())
				handleError(w, r, apperr.TenantNotFound(identity.TenantID))
				return
			}
			handleError(w, r, apperr.Internal("tenant lookup failed", err))
			return
		}
		if !t.Status.IsAccessible() {
			obs.CountAuthFailure(apperr.KindTenantSuspended.String())
			handleError(w, r, apperr.TenantSuspended(t.Name))
			return
		}

		next.ServeHTTP(w, r.WithContext(tenant.ContextWithTenant(r.Context(), t)))
	})
}
