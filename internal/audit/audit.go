package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of security-relevant operation being recorded.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLogin  Action = "login"
	ActionLogout Action = "logout"
	ActionExport Action = "export"
	ActionImport Action = "import"
)

func (a Action) String() string { return string(a) }

// Entry is one immutable append-only audit record. Once written it is never
// mutated or deleted by this subsystem.
type Entry struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenant_id,omitempty"`
	UserID     string         `json:"user_id"`
	Action     Action         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// pageSize caps every retrieval query; there are no unbounded scans.
const pageSize = 100

// Store persists entries. Append-only; retrieval is always filtered and
// newest-first. The tenantID argument on entity and user lookups restricts
// results to one tenant's trail; empty means unrestricted.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	FindByEntity(ctx context.Context, entityType, entityID, tenantID string, limit int) ([]*Entry, error)
	FindByUser(ctx context.Context, userID, tenantID string, limit int) ([]*Entry, error)
	FindByTenant(ctx context.Context, tenantID string, limit int) ([]*Entry, error)
}

// Recorder writes and retrieves audit entries. Handlers that mutate sensitive
// entities call Record explicitly; the pipeline does not auto-instrument.
type Recorder struct {
	store Store
	now   func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock overrides the time source. Test use.
func WithClock(fn func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRecorder constructs a Recorder over the given store.
func NewRecorder(store Store, opts ...RecorderOption) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("audit: store is required")
	}
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Record stamps the entry with a fresh id and the current time and appends it
// durably. The caller supplies a fully formed entry; no builder indirection.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	e.UserID = strings.TrimSpace(e.UserID)
	if e.UserID == "" {
		return errors.New("audit: user id is required")
	}
	if e.Action == "" {
		return errors.New("audit: action is required")
	}
	if strings.TrimSpace(e.EntityType) == "" || strings.TrimSpace(e.EntityID) == "" {
		return errors.New("audit: entity type and id are required")
	}
	e.ID = uuid.NewString()
	e.CreatedAt = r.now().UTC()
	return r.store.Append(ctx, &e)
}

// FindByEntity returns the newest entries for one entity, capped at the page
// size. A non-empty tenantID confines the result to that tenant's trail.
func (r *Recorder) FindByEntity(ctx context.Context, entityType, entityID, tenantID string) ([]*Entry, error) {
	return r.store.FindByEntity(ctx, entityType, entityID, tenantID, pageSize)
}

// FindByUser returns the newest entries recorded for one acting user. A
// non-empty tenantID confines the result to that tenant's trail.
func (r *Recorder) FindByUser(ctx context.Context, userID, tenantID string) ([]*Entry, error) {
	return r.store.FindByUser(ctx, userID, tenantID, pageSize)
}

// FindByTenant returns the newest entries scoped to one tenant.
func (r *Recorder) FindByTenant(ctx context.Context, tenantID string) ([]*Entry, error) {
	return r.store.FindByTenant(ctx, tenantID, pageSize)
}
