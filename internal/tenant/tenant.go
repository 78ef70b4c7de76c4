package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Status is the tenant lifecycle state. Cancellation is a status, not a row
// removal; tenants are never hard-deleted.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// ParseStatus maps a stored status string to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.TrimSpace(strings.ToLower(s))) {
	case StatusActive:
		return StatusActive, nil
	case StatusTrial:
		return StatusTrial, nil
	case StatusSuspended:
		return StatusSuspended, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown tenant status: %q", s)
	}
}

// IsAccessible reports whether the status permits normal API traffic.
// Suspended and cancelled tenants reject all non-super-admin requests.
func (s Status) IsAccessible() bool {
	return s == StatusActive || s == StatusTrial
}

func (s Status) String() string { return string(s) }

// Tier is the subscription tier carried on the tenant row.
type Tier string

const (
	TierFree         Tier = "free"
	TierPersonal     Tier = "personal"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

func (t Tier) String() string { return string(t) }

// Tenant is an isolated organization whose data must never be visible to
// another tenant's users.
type Tenant struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Status    Status         `json:"status"`
	Tier      Tier           `json:"tier"`
	Settings  map[string]any `json:"settings,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store describes tenant persistence. Rows are read-only from the pipeline's
// perspective except for status transitions.
type Store interface {
	Create(ctx context.Context, t *Tenant) error
	Find(ctx context.Context, id string) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	ListAccessible(ctx context.Context) ([]*Tenant, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

type tenantContextKey struct{}

// ContextWithTenant attaches the resolved tenant to the request scope.
// Handlers must use this value and never re-trust a tenant id supplied in a
// request body.
func ContextWithTenant(ctx context.Context, t *Tenant) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, tenantContextKey{}, t)
}

// FromContext extracts the resolved tenant from the request scope.
func FromContext(ctx context.Context) (*Tenant, bool) {
	if ctx == nil {
		return nil, false
	}
	v, ok := ctx.Value(tenantContextKey{}).(*Tenant)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
