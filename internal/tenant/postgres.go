package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NiceGuyIT/psa-sub001/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// ErrNotFound is returned when no tenant row matches the lookup.
var ErrNotFound = errors.New("tenant: not found")

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, t *Tenant) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return fmt.Errorf("tenant: encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`insert into tenants(id, name, slug, status, tier, settings) values($1,$2,$3,$4,$5,$6)`,
		t.ID, t.Name, t.Slug, t.Status.String(), t.Tier.String(), settings,
	)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, slug, status, tier, settings, created_at, updated_at from tenants where id=$1`, id)
	return scanTenant(row)
}

func (s *PGStore) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, slug, status, tier, settings, created_at, updated_at from tenants where slug=$1`, slug)
	return scanTenant(row)
}

func (s *PGStore) ListAccessible(ctx context.Context) ([]*Tenant, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, slug, status, tier, settings, created_at, updated_at
		 from tenants where status in ('active','trial') order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *PGStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, err := s.db.ExecContext(ctx,
		`update tenants set status=$2, updated_at=now() where id=$1`, id, status.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*Tenant, error) {
	var (
		t             Tenant
		status, tier  string
		settingsBytes []byte
	)
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &status, &tier, &settingsBytes, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	t.Status = parsed
	t.Tier = Tier(tier)
	if len(settingsBytes) > 0 {
		if err := json.Unmarshal(settingsBytes, &t.Settings); err != nil {
			return nil, fmt.Errorf("tenant: decode settings for %s: %w", t.ID, err)
		}
	}
	return &t, nil
}
