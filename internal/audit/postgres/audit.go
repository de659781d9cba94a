package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/admin-console/internal/audit"
)

const insertEntry = `INSERT INTO audit_entries
	(event_id, event_type, resource, record_id, label, username, occurred_at)
	VALUES (:event_id, :event_type, :resource, :record_id, :label, :username, :occurred_at)`

const recentEntries = `SELECT id, event_id, event_type, resource, record_id, label, username, occurred_at
	FROM audit_entries
	ORDER BY occurred_at DESC, id DESC
	LIMIT ?`

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) audit.RepositoryAPI {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, e *audit.Entry) error {
	_, err := r.db.NamedExecContext(ctx, insertEntry, e)
	return err
}

func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]audit.Entry, error) {
	var entries []audit.Entry
	err := r.db.SelectContext(ctx, &entries, r.db.Rebind(recentEntries), limit)
	return entries, err
}
