package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/supplysync/catalog_api/internal/models"
)

// AuditRepository persists the linkage audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert records one linkage transition.
func (r *AuditRepository) Insert(ctx context.Context, q sqlx.ExtContext, entry *models.MatchAuditLog) error {
	const qry = `
        INSERT INTO match_audit_logs (supplier_item_id, action, actor, from_status, to_status, product_id, previous_product_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`

	_, err := q.ExecContext(ctx, qry,
		entry.SupplierItemID, entry.Action, entry.Actor,
		entry.FromStatus, entry.ToStatus, entry.ProductID, entry.PreviousProductID)
	return err
}

// ListByItem returns the audit trail of one supplier item, newest first.
func (r *AuditRepository) ListByItem(ctx context.Context, itemID int) ([]models.MatchAuditLog, error) {
	const qry = `
        SELECT * FROM match_audit_logs
        WHERE supplier_item_id = $1
        ORDER BY created_at DESC, id DESC`

	var logs []models.MatchAuditLog
	if err := r.db.SelectContext(ctx, &logs, qry, itemID); err != nil {
		return nil, err
	}
	return logs, nil
}
