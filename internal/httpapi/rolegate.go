package httpapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/NiceGuyIT/psa-sub001/internal/apperr"
	"github.com/NiceGuyIT/psa-sub001/internal/auth"
	"github.com/NiceGuyIT/psa-sub001/internal/obs"
)

// RoleSet is a declarative allowed-role guard. Route tables pair one of these
// with each protected handler; one check function evaluates them all.
type RoleSet map[auth.Role]struct{}

// Roles builds a RoleSet.
func Roles(roles ...auth.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Allows reports whether the role passes the gate. Super-admin passes every
// gate.
func (s RoleSet) Allows(role auth.Role) bool {
	if role == auth.RoleSuperAdmin {
		return true
	}
	_, ok := s[role]
	return ok
}

// String renders the allowed roles sorted, so error text is stable across
// requests.
func (s RoleSet) String() string {
	names := make([]string, 0, len(s))
	for r := range s {
		names = append(names, r.String())
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// requireRole rejects identities whose role is outside the allowed set. It
// must run after withAuth. The error names only the required set, which is
// already public in the API contract.
func (a *API) requireRole(allowed RoleSet, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			handleError(w, r, apperr.Internal("identity missing from request scope", nil))
			return
		}
		if !allowed.Allows(identity.Role) {
			obs.CountAuthFailure(apperr.KindAuthorizationDenied.String())
			handleError(w, r, apperr.AuthorizationDenied(
				fmt.Sprintf("requires one of roles [%s]", allowed)))
			return
		}
		next.ServeHTTP(w, r)
	})
}
