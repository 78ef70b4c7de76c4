package audit

import (
	"context"
	"database/sql"
	"encoding/json"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. The audit_log table is
// append-only; no update or delete statements exist here.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Append(ctx context.Context, e *Entry) error {
	oldValues, _ := json.Marshal(e.OldValues)
	newValues, _ := json.Marshal(e.NewValues)
	_, err := s.db.ExecContext(ctx,
		`insert into audit_log(id, tenant_id, user_id, action, entity_type, entity_id, old_values, new_values, ip_address, user_agent, created_at)
		 values($1,nullif($2,''),$3,$4,$5,$6,$7,$8,nullif($9,''),nullif($10,''),$11)`,
		e.ID, e.TenantID, e.UserID, e.Action.String(), e.EntityType, e.EntityID,
		oldValues, newValues, e.IPAddress, e.UserAgent, e.CreatedAt,
	)
	return err
}

const selectColumns = `select id, coalesce(tenant_id,''), user_id, action, entity_type, entity_id, old_values, new_values, coalesce(ip_address,''), coalesce(user_agent,''), created_at from audit_log`

func (s *PGStore) FindByEntity(ctx context.Context, entityType, entityID, tenantID string, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` where entity_type=$1 and entity_id=$2 and ($3 = '' or coalesce(tenant_id,'') = $3) order by created_at desc limit $4`,
		entityType, entityID, tenantID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *PGStore) FindByUser(ctx context.Context, userID, tenantID string, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` where user_id=$1 and ($2 = '' or coalesce(tenant_id,'') = $2) order by created_at desc limit $3`,
		userID, tenantID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *PGStore) FindByTenant(ctx context.Context, tenantID string, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` where tenant_id=$1 order by created_at desc limit $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]*Entry, error) {
	defer rows.Close()

	var res []*Entry
	for rows.Next() {
		var (
			e                    Entry
			action               string
			oldValues, newValues []byte
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &action, &e.EntityType, &e.EntityID,
			&oldValues, &newValues, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		_ = json.Unmarshal(oldValues, &e.OldValues)
		_ = json.Unmarshal(newValues, &e.NewValues)
		res = append(res, &e)
	}
	return res, rows.Err()
}
