package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/NiceGuyIT/psa-sub001/internal/audit"
	"github.com/NiceGuyIT/psa-sub001/internal/auth"
	"github.com/NiceGuyIT/psa-sub001/internal/obs"
	"github.com/NiceGuyIT/psa-sub001/internal/tenant"
	"github.com/NiceGuyIT/psa-sub001/internal/user"
)

// ReadyProbe reports readiness, pinging the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. All state it carries is immutable after New; every
// request gets its own identity/tenant scope via context values.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	codec         *auth.Codec
	tenants       tenant.Store
	users         user.Store
	recorder      *audit.Recorder
	tokenLifetime time.Duration
}

// Deps carries the collaborators the pipeline consumes through narrow
// interfaces.
type Deps struct {
	Codec         *auth.Codec
	Tenants       tenant.Store
	Users         user.Store
	Recorder      *audit.Recorder
	ReadyProbe    ReadyProbe
	TokenLifetime time.Duration
}

// New wires the route table. Protected routes declare their allowed role set
// here, next to the path, and share one generic gate.
func New(deps Deps, version string) *API {
	a := &API{
		mux:           http.NewServeMux(),
		readyProbe:    deps.ReadyProbe,
		version:       version,
		codec:         deps.Codec,
		tenants:       deps.Tenants,
		users:         deps.Users,
		recorder:      deps.Recorder,
		tokenLifetime: deps.TokenLifetime,
	}
	if a.tokenLifetime <= 0 {
		a.tokenLifetime = auth.DefaultTokenLifetime
	}

	// Public surface.
	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReady)
	a.mux.Handle("/metrics", obs.Handler())
	a.mux.Handle("/v1/info", a.withOptionalAuth(http.HandlerFunc(a.handleInfo)))
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)

	// Protected surface: (route, allowed-roles) pairs; an empty set means
	// super-admin only.
	for _, route := range []struct {
		pattern string
		allowed RoleSet
		handler http.HandlerFunc
	}{
		{"/v1/me", Roles(auth.RoleAdmin, auth.RoleTechnician, auth.RoleViewer, auth.RoleClient), a.handleMe},
		{"/v1/tenants", Roles(), a.handleTenants},
		{"/v1/tenants/", Roles(), a.handleTenantScoped},
		{"/v1/audit/", Roles(auth.RoleAdmin), a.handleAuditScoped},
	} {
		a.mux.Handle(route.pattern, a.protect(route.handler, route.allowed))
	}

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// protect chains the trust pipeline in order: identity builder, tenant
// resolver, role gate. The first failing stage aborts; the handler never runs
// on a rejected request.
func (a *API) protect(next http.Handler, allowed RoleSet) http.Handler {
	return a.withAuth(a.requireTenant(a.requireRole(allowed, next)))
}

// Handler returns the full middleware stack for the server.
func (a *API) Handler() http.Handler {
	h := MaxBodyBytes(a.mux, 1<<20)
	h = RateLimit(h, 50, 25)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// audit appends an entry best-effort. The context is detached from request
// cancellation so a record of an attempted action survives client
// disconnects; failures are logged and counted but never change the response
// already chosen for the business action.
func (a *API) audit(ctx context.Context, e audit.Entry) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		obs.CountAuditWriteFailure()
		obs.LogRequest(map[string]any{
			"level":       "error",
			"msg":         "audit write failed",
			"error":       err.Error(),
			"action":      e.Action.String(),
			"entity_type": e.EntityType,
			"entity_id":   e.EntityID,
			"request_id":  RequestIDFromContext(ctx),
		})
	}
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "psa-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// handleInfo is public but personalizes when a valid token is attached
// (optional-mode identity builder).
func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"name":    "psa-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	}
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		body["user_id"] = identity.UserID
	}
	writeJSON(w, http.StatusOK, body)
}

// handleMe echoes the resolved request scope: identity plus tenant when one
// is attached.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	body := map[string]any{
		"user_id":   identity.UserID,
		"email":     identity.Email,
		"name":      identity.Name,
		"role":      identity.Role.String(),
		"is_admin":  identity.Role.IsAdmin(),
		"can_write": identity.Role.CanWrite(),
	}
	if t, ok := tenant.FromContext(r.Context()); ok {
		body["tenant"] = t
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.ExpiresAt != nil {
		body["token_expires_at"] = claims.ExpiresAt.Time
	}
	writeJSON(w, http.StatusOK, body)
}
