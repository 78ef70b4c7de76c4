package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of privilege levels. super_admin is the only role
// exempt from tenant scoping; every other role must carry a tenant id to act.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleViewer     Role = "viewer"
	RoleClient     Role = "client"
)

// ParseRole maps a role string to a Role. Unknown strings are an error;
// callers that want the fail-safe downgrade use RoleOrViewer.
func ParseRole(s string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(s))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleTechnician:
		return RoleTechnician, nil
	case RoleViewer:
		return RoleViewer, nil
	case RoleClient:
		return RoleClient, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// RoleOrViewer parses a role string, downgrading anything unrecognized to the
// lowest-privilege viewer role. Used when the string comes from an
// already-verified token, where a stale role name should reduce privilege
// rather than reject the request.
func RoleOrViewer(s string) Role {
	role, err := ParseRole(s)
	if err != nil {
		return RoleViewer
	}
	return role
}

func (r Role) String() string { return string(r) }

// IsAdmin reports whether the role has administrative privileges.
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// CanWrite reports whether the role may mutate data. Viewer and client are
// read-only.
func (r Role) CanWrite() bool {
	return r != RoleViewer && r != RoleClient
}
