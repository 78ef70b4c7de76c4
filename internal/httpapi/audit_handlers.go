package httpapi

import (
	"net/http"
	"strings"

	"github.com/NiceGuyIT/psa-sub001/internal/apperr"
	"github.com/NiceGuyIT/psa-sub001/internal/audit"
	"github.com/NiceGuyIT/psa-sub001/internal/auth"
	"github.com/NiceGuyIT/psa-sub001/internal/tenant"
)

// handleAuditScoped dispatches the audit retrieval surface:
//
//	GET /v1/audit/entity/{type}/{id}
//	GET /v1/audit/user/{id}
//	GET /v1/audit/tenant/{id}
//
// Every query is newest-first and capped; there is no unbounded export here.
// Tenant-scoped callers may only read their own tenant's trail on every
// scope; super-admin reads any.
func (a *API) handleAuditScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	scopeTenantID, err := a.auditScope(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/audit/")
	scope, arg, _ := strings.Cut(rest, "/")

	var entries []*audit.Entry
	switch scope {
	case "entity":
		entityType, entityID, _ := strings.Cut(arg, "/")
		if entityType == "" || entityID == "" {
			handleError(w, r, apperr.Validation("entity type and id are required"))
			return
		}
		entries, err = a.recorder.FindByEntity(r.Context(), entityType, entityID, scopeTenantID)
	case "user":
		if arg == "" {
			handleError(w, r, apperr.Validation("user id is required"))
			return
		}
		entries, err = a.recorder.FindByUser(r.Context(), arg, scopeTenantID)
	case "tenant":
		if arg == "" {
			handleError(w, r, apperr.Validation("tenant id is required"))
			return
		}
		if denied := a.denyCrossTenant(r, arg); denied != nil {
			handleError(w, r, denied)
			return
		}
		entries, err = a.recorder.FindByTenant(r.Context(), arg)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		handleError(w, r, apperr.Internal("audit query failed", err))
		return
	}

	if entries == nil {
		entries = []*audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// auditScope returns the tenant id every audit query must be confined to:
// empty for super-admin (unrestricted), the resolved tenant's id for everyone
// else.
func (a *API) auditScope(r *http.Request) (string, error) {
	identity, _ := auth.IdentityFromContext(r.Context())
	if identity.Role == auth.RoleSuperAdmin {
		return "", nil
	}
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		return "", apperr.Internal("tenant missing from request scope", nil)
	}
	return t.ID, nil
}

// denyCrossTenant rejects tenant-scoped identities that ask for a trail
// outside their resolved tenant. Super-admin has no resolved tenant and is
// never restricted.
func (a *API) denyCrossTenant(r *http.Request, requestedTenantID string) error {
	identity, _ := auth.IdentityFromContext(r.Context())
	if identity.Role == auth.RoleSuperAdmin {
		return nil
	}
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		return apperr.Internal("tenant missing from request scope", nil)
	}
	if t.ID != requestedTenantID {
		return apperr.AuthorizationDenied("audit trail belongs to another tenant")
	}
	return nil
}
