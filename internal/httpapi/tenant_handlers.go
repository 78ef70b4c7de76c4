package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/NiceGuyIT/psa-sub001/internal/apperr"
	"github.com/NiceGuyIT/psa-sub001/internal/audit"
	"github.com/NiceGuyIT/psa-sub001/internal/auth"
	"github.com/NiceGuyIT/psa-sub001/internal/sso"
	"github.com/NiceGuyIT/psa-sub001/internal/tenant"
)

// handleTenants lists tenants in an accessible status. The route table
// restricts the whole /v1/tenants surface to super-admin; tenant lifecycle is
// a platform-operator concern.
func (a *API) handleTenants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	list, err := a.tenants.ListAccessible(r.Context())
	if err != nil {
		handleError(w, r, apperr.Internal("tenant list failed", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tenants": list,
		"count":   len(list),
	})
}

// handleTenantScoped dispatches /v1/tenants/{id}, the status transition
// subresources /v1/tenants/{id}/suspend and /v1/tenants/{id}/activate, and
// the read-only /v1/tenants/{id}/sso view.
func (a *API) handleTenantScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/tenants/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		handleError(w, r, apperr.Validation("tenant id is required"))
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getTenant(w, r, id)
	case "suspend":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.transitionTenant(w, r, id, tenant.StatusSuspended)
	case "activate":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.transitionTenant(w, r, id, tenant.StatusActive)
	case "sso":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getTenantSSO(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (a *API) getTenant(w http.ResponseWriter, r *http.Request, id string) {
	t, err := a.tenants.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			handleError(w, r, apperr.TenantNotFound(id))
			return
		}
		handleError(w, r, apperr.Internal("tenant lookup failed", err))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// getTenantSSO exposes the tenant's single sign-on configuration, minus the
// client secret. An unconfigured tenant is not an error.
func (a *API) getTenantSSO(w http.ResponseWriter, r *http.Request, id string) {
	t, err := a.tenants.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			handleError(w, r, apperr.TenantNotFound(id))
			return
		}
		handleError(w, r, apperr.Internal("tenant lookup failed", err))
		return
	}
	cfg, err := sso.FromSettings(t.Settings)
	if err != nil {
		if errors.Is(err, sso.ErrNotConfigured) {
			writeJSON(w, http.StatusOK, map[string]any{"configured": false})
			return
		}
		handleError(w, r, apperr.Validation(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"configured": true,
		"sso":        cfg,
	})
}

// transitionTenant moves a tenant to the target status and audits the change
// with the before and after values.
func (a *API) transitionTenant(w http.ResponseWriter, r *http.Request, id string, to tenant.Status) {
	t, err := a.tenants.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			handleError(w, r, apperr.TenantNotFound(id))
			return
		}
		handleError(w, r, apperr.Internal("tenant lookup failed", err))
		return
	}
	if t.Status == to {
		writeJSON(w, http.StatusOK, t)
		return
	}

	from := t.Status
	if err := a.tenants.UpdateStatus(r.Context(), id, to); err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			handleError(w, r, apperr.TenantNotFound(id))
			return
		}
		handleError(w, r, apperr.Internal("tenant status update failed", err))
		return
	}
	t.Status = to

	identity, _ := auth.IdentityFromContext(r.Context())
	a.audit(r.Context(), audit.Entry{
		TenantID:   t.ID,
		UserID:     identity.UserID,
		Action:     audit.ActionUpdate,
		EntityType: "tenant",
		EntityID:   t.ID,
		OldValues:  map[string]any{"status": from.String()},
		NewValues:  map[string]any{"status": to.String()},
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	})

	writeJSON(w, http.StatusOK, t)
}
