package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NiceGuyIT/psa-sub001/internal/audit"
	"github.com/NiceGuyIT/psa-sub001/internal/auth"
	"github.com/NiceGuyIT/psa-sub001/internal/tenant"
	"github.com/NiceGuyIT/psa-sub001/internal/user"
)

func seedUser(t *testing.T, f *fixture, tenantID, email, password string, role auth.Role, status user.Status) *user.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &user.User{
		ID:           "user-" + email,
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		Status:       status,
	}
	f.users.users = append(f.users.users, u)
	return u
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t, activeTenant())
	seedUser(t, f, "tenant-1", "jane@acme.test", "hunter2hunter2", auth.RoleAdmin, user.StatusActive)

	rr := f.do(postJSON("/v1/auth/login", `{"email":"Jane@Acme.test","password":"hunter2hunter2","tenant":"acme"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.AccessToken == "" {
		t.Fatalf("unexpected token fields: %+v", resp)
	}
	if resp.User.Role != "admin" {
		t.Fatalf("unexpected user role: %s", resp.User.Role)
	}
	if strings.Contains(rr.Body.String(), "password_hash") || strings.Contains(rr.Body.String(), "$argon2id$") {
		t.Fatalf("password hash must never leave the server: %s", rr.Body.String())
	}

	claims, err := f.codec.Validate(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued token must validate: %v", err)
	}
	if claims.TenantID != "tenant-1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// The login is audited with the caller's network context.
	if len(f.trail.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(f.trail.entries))
	}
	e := f.trail.entries[0]
	if e.Action != audit.ActionLogin || e.TenantID != "tenant-1" || e.IPAddress == "" {
		t.Fatalf("unexpected audit entry: %+v", e)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	f := newFixture(t, activeTenant())
	seedUser(t, f, "tenant-1", "jane@acme.test", "hunter2hunter2", auth.RoleAdmin, user.StatusActive)
	seedUser(t, f, "tenant-1", "old@acme.test", "hunter2hunter2", auth.RoleViewer, user.StatusInactive)

	bodies := []string{
		`{"email":"jane@acme.test","password":"wrong","tenant":"acme"}`,
		`{"email":"nobody@acme.test","password":"hunter2hunter2","tenant":"acme"}`,
		`{"email":"old@acme.test","password":"hunter2hunter2","tenant":"acme"}`,
		`{"email":"jane@acme.test","password":"hunter2hunter2","tenant":"ghost"}`,
	}
	var first string
	for i, body := range bodies {
		rr := f.do(postJSON("/v1/auth/login", body))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("case %d: expected 401, got %d: %s", i, rr.Code, rr.Body.String())
		}
		var resp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if first == "" {
			first = resp.Error
		} else if resp.Error != first {
			t.Fatalf("credential failures must be indistinguishable: %q vs %q", first, resp.Error)
		}
	}
	if len(f.trail.entries) != 0 {
		t.Fatalf("failed logins are not audited as logins")
	}
}

func TestLoginSuspendedTenant(t *testing.T) {
	suspended := activeTenant()
	suspended.Status = tenant.StatusSuspended
	f := newFixture(t, suspended)
	seedUser(t, f, "tenant-1", "jane@acme.test", "hunter2hunter2", auth.RoleAdmin, user.StatusActive)

	rr := f.do(postJSON("/v1/auth/login", `{"email":"jane@acme.test","password":"hunter2hunter2","tenant":"acme"}`))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for suspended tenant, got %d", rr.Code)
	}
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)

	for i, body := range []string{
		``,
		`{}`,
		`{"email":"a@b.c"}`,
		`{"password":"pw"}`,
		`{"email":"a@b.c","password":"pw","bogus":true}`,
	} {
		rr := f.do(postJSON("/v1/auth/login", body))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d: %s", i, rr.Code, rr.Body.String())
		}
	}

	rr := f.do(httptest.NewRequest(http.MethodGet, "/v1/auth/login", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestLoginPlatformAccountWithoutTenant(t *testing.T) {
	f := newFixture(t)
	seedUser(t, f, "", "root@platform.test", "hunter2hunter2", auth.RoleSuperAdmin, user.StatusActive)

	rr := f.do(postJSON("/v1/auth/login", `{"email":"root@platform.test","password":"hunter2hunter2"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := f.codec.Validate(resp.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.TenantID != "" || claims.Role != "super_admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestGetTenant(t *testing.T) {
	f := newFixture(t, activeTenant())
	token := f.token(t, "root-1", "", auth.RoleSuperAdmin)

	req := httptest.NewRequest(http.MethodGet, "/v1/tenants/tenant-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := f.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"slug":"acme"`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/tenants/ghost", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = f.do(req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSuspendAndActivateTenant(t *testing.T) {
	f := newFixture(t, activeTenant())
	token := f.token(t, "root-1", "", auth.RoleSuperAdmin)

	req := httptest.NewRequest(http.MethodPost, "/v1/tenants/tenant-1/suspend", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := f.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("suspend: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if f.tenants.byID["tenant-1"].Status != tenant.StatusSuspended {
		t.Fatalf("tenant was not suspended")
	}

	if len(f.trail.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(f.trail.entries))
	}
	e := f.trail.entries[0]
	if e.Action != audit.ActionUpdate || e.EntityType != "tenant" || e.UserID != "root-1" {
		t.Fatalf("unexpected audit entry: %+v", e)
	}
	if e.OldValues["status"] != "active" || e.NewValues["status"] != "suspended" {
		t.Fatalf("audit entry must carry the transition: %+v", e)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/tenants/tenant-1/activate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = f.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("activate: expected 200, got %d", rr.Code)
	}
	if f.tenants.byID["tenant-1"].Status != tenant.StatusActive {
		t.Fatalf("tenant was not reactivated")
	}
}

func TestSuspendIsIdempotent(t *testing.T) {
	suspended := activeTenant()
	suspended.Status = tenant.StatusSuspended
	f := newFixture(t, suspended)

	req := httptest.NewRequest(http.MethodPost, "/v1/tenants/tenant-1/suspend", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "root-1", "", auth.RoleSuperAdmin))
	rr := f.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(f.trail.entries) != 0 {
		t.Fatalf("no-op transition must not be audited")
	}
}

func TestTenantTransitionRequiresSuperAdmin(t *testing.T) {
	f := newFixture(t, activeTenant())

	req := httptest.NewRequest(http.MethodPost, "/v1/tenants/tenant-1/suspend", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "user-1", "tenant-1", auth.RoleAdmin))
	rr := f.do(req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if f.tenants.byID["tenant-1"].Status != tenant.StatusActive {
		t.Fatalf("denied request must not change state")
	}
}

func TestAuditQueries(t *testing.T) {
	f := newFixture(t, activeTenant())
	f.trail.entries = []*audit.Entry{
		{ID: "e-1", TenantID: "tenant-1", UserID: "user-1", Action: audit.ActionCreate, EntityType: "ticket", EntityID: "t-9"},
		{ID: "e-2", TenantID: "tenant-1", UserID: "user-1", Action: audit.ActionUpdate, EntityType: "ticket", EntityID: "t-9"},
		{ID: "e-3", TenantID: "tenant-2", UserID: "user-2", Action: audit.ActionDelete, EntityType: "ticket", EntityID: "t-10"},
	}
	token := f.token(t, "user-1", "tenant-1", auth.RoleAdmin)

	for _, path := range []string{
		"/v1/audit/entity/ticket/t-9",
		"/v1/audit/user/user-1",
		"/v1/audit/tenant/tenant-1",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := f.do(req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, rr.Code, rr.Body.String())
		}
		var resp struct {
			Count   int            `json:"count"`
			Entries []*audit.Entry `json:"entries"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if resp.Count != 2 || len(resp.Entries) != 2 {
			t.Fatalf("%s: expected 2 entries, got %d", path, resp.Count)
		}
		if resp.Entries[0].ID != "e-2" {
			t.Fatalf("%s: expected newest first, got %s", path, resp.Entries[0].ID)
		}
	}
}

func TestAuditCrossTenantDenied(t *testing.T) {
	f := newFixture(t, activeTenant())

	req := httptest.NewRequest(http.MethodGet, "/v1/audit/tenant/tenant-2", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "user-1", "tenant-1", auth.RoleAdmin))
	rr := f.do(req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAuditEntityAndUserQueriesStayInTenant(t *testing.T) {
	f := newFixture(t, activeTenant())
	f.trail.entries = []*audit.Entry{
		{ID: "e-3", TenantID: "tenant-2", UserID: "user-2", Action: audit.ActionDelete, EntityType: "ticket", EntityID: "t-10"},
	}
	token := f.token(t, "user-1", "tenant-1", auth.RoleAdmin)

	for _, path := range []string{
		"/v1/audit/entity/ticket/t-10",
		"/v1/audit/user/user-2",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := f.do(req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, rr.Code, rr.Body.String())
		}
		body := rr.Body.String()
		if strings.Contains(body, "tenant-2") || strings.Contains(body, `"e-3"`) {
			t.Fatalf("%s: another tenant's entry is visible: %s", path, body)
		}
		if !strings.Contains(body, `"count":0`) {
			t.Fatalf("%s: expected an empty result, got %s", path, body)
		}
	}
}

func TestAuditSuperAdminReadsAnyTenant(t *testing.T) {
	f := newFixture(t, activeTenant())
	f.trail.entries = []*audit.Entry{
		{ID: "e-1", TenantID: "tenant-2", UserID: "user-2", Action: audit.ActionExport, EntityType: "report", EntityID: "r-1"},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/audit/tenant/tenant-2", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "root-1", "", auth.RoleSuperAdmin))
	rr := f.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"e-1"`) {
		t.Fatalf("expected entry in body: %s", rr.Body.String())
	}
}

func TestAuditQueryReturnsEmptyList(t *testing.T) {
	f := newFixture(t, activeTenant())

	req := httptest.NewRequest(http.MethodGet, "/v1/audit/user/nobody", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "user-1", "tenant-1", auth.RoleAdmin))
	rr := f.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"entries":[]`) {
		t.Fatalf("expected empty list, got %s", rr.Body.String())
	}
}

func TestGetTenantSSO(t *testing.T) {
	withSSO := activeTenant()
	withSSO.Settings = map[string]any{
		"sso": map[string]any{
			"provider":     "okta",
			"client_id":    "okta-client",
			"redirect_uri": "https://acme.example.test/callback",
			"enabled":      true,
		},
	}
	f := newFixture(t, withSSO)
	token := f.token(t, "root-1", "", auth.RoleSuperAdmin)

	req := httptest.NewRequest(http.MethodGet, "/v1/tenants/tenant-1/sso", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := f.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"configured":true`) || !strings.Contains(body, `"provider":"okta"`) {
		t.Fatalf("unexpected body: %s", body)
	}
	if strings.Contains(body, "client_secret") {
		t.Fatalf("client secret must not be exposed: %s", body)
	}
}

func TestGetTenantSSONotConfigured(t *testing.T) {
	f := newFixture(t, activeTenant())

	req := httptest.NewRequest(http.MethodGet, "/v1/tenants/tenant-1/sso", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "root-1", "", auth.RoleSuperAdmin))
	rr := f.do(req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"configured":false`) {
		t.Fatalf("unexpected response: %d %s", rr.Code, rr.Body.String())
	}
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("healthz: %d %s", rr.Code, rr.Body.String())
	}

	rr = f.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rr.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	f := newFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/v1/bogus", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
