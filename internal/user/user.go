package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/NiceGuyIT/psa-sub001/internal/auth"
)

// Status is the user account state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

// User is the minimal directory record the trust pipeline needs: login
// lookup, credential verification and identity display name. Full user CRUD
// lives with the feature modules, not here.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         auth.Role `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns the display name used in request identities.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Store describes user directory lookups.
type Store interface {
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, tenantID, email string) (*User, error)
}

// ErrNotFound is returned when no user row matches the lookup.
var ErrNotFound = errors.New("user: not found")
