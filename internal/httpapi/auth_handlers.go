package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/NiceGuyIT/psa-sub001/internal/apperr"
	"github.com/NiceGuyIT/psa-sub001/internal/audit"
	"github.com/NiceGuyIT/psa-sub001/internal/auth"
	"github.com/NiceGuyIT/psa-sub001/internal/obs"
	"github.com/NiceGuyIT/psa-sub001/internal/tenant"
	"github.com/NiceGuyIT/psa-sub001/internal/user"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Tenant is the organization slug. Empty means a platform-level account.
	Tenant string `json:"tenant,omitempty"`
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        *user.User `json:"user"`
}

// handleLogin exchanges email and password for a signed bearer token. Every
// failure between lookup and credential check collapses to the same 401 so
// the response does not reveal which part was wrong. Successful logins are
// audited with the caller's network context.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, apperr.Validation(err.Error()))
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		handleError(w, r, apperr.Validation("email and password are required"))
		return
	}

	tenantID := ""
	if slug := strings.TrimSpace(req.Tenant); slug != "" {
		t, err := a.tenants.FindBySlug(r.Context(), slug)
		if err != nil {
			if errors.Is(err, tenant.ErrNotFound) {
				a.rejectLogin(w, r)
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
		tenantID = t.ID
	}

	u, err := a.users.FindByEmail(r.Context(), tenantID, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			a.rejectLogin(w, r)
			return
		}
		handleError(w, r, apperr.Internal("user lookup failed", err))
		return
	}
	if u.Status != user.StatusActive {
		a.rejectLogin(w, r)
		return
	}
	if !auth.VerifyPassword(req.Password, u.PasswordHash) {
		a.rejectLogin(w, r)
		return
	}

	token, expiresAt, err := a.codec.Issue(u.ID, u.TenantID, u.Email, u.Role, a.tokenLifetime)
	if err != nil {
		handleError(w, r, apperr.Internal("token issue failed", err))
		return
	}

	a.audit(r.Context(), audit.Entry{
		TenantID:   u.TenantID,
		UserID:     u.ID,
		Action:     audit.ActionLogin,
		EntityType: "user",
		EntityID:   u.ID,
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.UTC(),
		User:        u,
	})
}

// rejectLogin is the single credential-failure response. Unknown email,
// inactive account and wrong password are indistinguishable to the caller.
func (a *API) rejectLogin(w http.ResponseWriter, r *http.Request) {
	obs.CountAuthFailure(apperr.KindAuthenticationFailed.String())
	handleError(w, r, apperr.AuthenticationFailed("invalid credentials"))
}
