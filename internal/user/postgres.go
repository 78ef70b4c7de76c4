package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/NiceGuyIT/psa-sub001/internal/auth"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const selectColumns = `select id, coalesce(tenant_id,''), email, coalesce(password_hash,''), first_name, last_name, role, status, created_at, updated_at from users`

func (s *PGStore) Find(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectColumns+` where id=$1`, id))
}

// FindByEmail scopes the lookup by tenant; an empty tenantID matches
// platform-level accounts only.
func (s *PGStore) FindByEmail(ctx context.Context, tenantID, email string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		selectColumns+` where coalesce(tenant_id,'')=$1 and email=$2`, tenantID, email))
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u            User
		role, status string
	)
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &role, &status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = auth.RoleOrViewer(role)
	u.Status = Status(status)
	return &u, nil
}
