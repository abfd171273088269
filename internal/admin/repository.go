package admin

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type AuditRepository interface {
	Append(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, targetUserID int, limit, offset int) ([]AuditEntry, error)
}

const auditColumns = `id, admin_user_id, action, target_user_id, details, created_at`

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, e *AuditEntry) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO admin_audit_log (admin_user_id, action, target_user_id, details)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+auditColumns,
		e.AdminUserID, e.Action, e.TargetUserID, e.Details,
	).StructScan(e)
}

// List returns newest entries first. A zero targetUserID lists every user.
func (r *auditRepository) List(ctx context.Context, targetUserID int, limit, offset int) ([]AuditEntry, error) {
	entries := []AuditEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT `+auditColumns+`
		FROM admin_audit_log
		WHERE $1 = 0 OR target_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, targetUserID, limit, offset)
	return entries, err
}
