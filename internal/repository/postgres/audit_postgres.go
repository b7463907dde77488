package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"digiarchive/internal/model"
	"digiarchive/internal/repository"
)

// AuditLogPostgres is a PostgreSQL implementation of repository.AuditLogRepository.
// The table is append-only; this type intentionally has no update or delete.
type AuditLogPostgres struct {
	db *sql.DB
}

// NewAuditLogPostgres creates a new AuditLogPostgres repository.
func NewAuditLogPostgres(db *sql.DB) *AuditLogPostgres {
	return &AuditLogPostgres{db: db}
}

var _ repository.AuditLogRepository = (*AuditLogPostgres)(nil)

// Append inserts one audit entry.
func (r *AuditLogPostgres) Append(ctx context.Context, entry *model.AuditLog) error {
	var changes []byte
	if entry.Changes != nil {
		b, err := json.Marshal(entry.Changes)
		if err != nil {
			return err
		}
		changes = b
	}
	const q = `
		INSERT INTO audit_logs (id, actor, action, entity_type, entity_id, changes, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, q,
		entry.ID, entry.Actor, string(entry.Action), entry.EntityType, entry.EntityID,
		changes, entry.IPAddress, entry.UserAgent, entry.CreatedAt)
	return err
}

// ListByEntity returns the audit trail of one entity, newest first.
func (r *AuditLogPostgres) ListByEntity(ctx context.Context, entityType, entityID string, pq repository.PageQuery) (*repository.PageResult[model.AuditLog], error) {
	var total int
	const qCount = `SELECT COUNT(*) FROM audit_logs WHERE entity_type = $1 AND entity_id = $2`
	if err := r.db.QueryRowContext(ctx, qCount, entityType, entityID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, actor, action, entity_type, entity_id, changes, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, qList, entityType, entityID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditLog, 0)
	for rows.Next() {
		var e model.AuditLog
		var action string
		var changes []byte
		if err := rows.Scan(&e.ID, &e.Actor, &action, &e.EntityType, &e.EntityID,
			&changes, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = model.AuditAction(action)
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, err
			}
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.AuditLog]{Items: items, Total: total}, nil
}
