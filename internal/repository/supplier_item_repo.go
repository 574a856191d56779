package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/supplysync/catalog_api/internal/models"
)

// SupplierItemRepository handles data access for supplier items. Methods that
// take a sqlx.ExtContext participate in the caller's transaction; the batch
// matcher claims and resolves items inside a single transaction so the
// row locks acquired by ClaimUnmatched are held until commit.
type SupplierItemRepository struct {
	db *sqlx.DB
}

// NewSupplierItemRepository creates a new SupplierItemRepository.
func NewSupplierItemRepository(db *sqlx.DB) *SupplierItemRepository {
	return &SupplierItemRepository{db: db}
}

// ClaimUnmatched locks and returns up to limit unmatched items. SKIP LOCKED
// makes concurrent batches partition the unmatched set instead of contending:
// rows claimed by another in-flight transaction are silently skipped, not
// errors. Items stay claimed until the transaction ends.
//
// verified_match items are structurally excluded here; manual decisions are
// never revisited by automated matching.
func (r *SupplierItemRepository) ClaimUnmatched(ctx context.Context, q sqlx.ExtContext, categoryID *int, limit int) ([]models.SupplierItem, error) {
	const qry = `
        SELECT * FROM supplier_items
        WHERE match_status = 'unmatched'
        AND ($1::int IS NULL OR category_id = $1)
        ORDER BY id
        LIMIT $2
        FOR UPDATE SKIP LOCKED`

	var items []models.SupplierItem
	if err := sqlx.SelectContext(ctx, q, &items, qry, categoryID, limit); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID returns a single supplier item by id.
func (r *SupplierItemRepository) GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*models.SupplierItem, error) {
	const qry = `SELECT * FROM supplier_items WHERE id = $1 LIMIT 1`

	var item models.SupplierItem
	if err := sqlx.GetContext(ctx, q, &item, qry, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &item, nil
}

// GetByIDLocked returns the item with its row locked for update. Override
// transitions read-modify-write the linkage state under this lock.
func (r *SupplierItemRepository) GetByIDLocked(ctx context.Context, q sqlx.ExtContext, id int) (*models.SupplierItem, error) {
	const qry = `SELECT * FROM supplier_items WHERE id = $1 FOR UPDATE`

	var item models.SupplierItem
	if err := sqlx.GetContext(ctx, q, &item, qry, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ResolveLink links an item to a product with the given status and score,
// clearing any stored candidates.
func (r *SupplierItemRepository) ResolveLink(ctx context.Context, q sqlx.ExtContext, itemID, productID int, status models.MatchStatus, score *int) error {
	const qry = `
        UPDATE supplier_items
        SET match_status = $2, product_id = $3, match_score = $4,
            match_candidates = NULL, updated_at = NOW()
        WHERE id = $1`

	_, err := q.ExecContext(ctx, qry, itemID, status, productID, score)
	return err
}

// ResolvePotential marks an item as a potential match, storing its top
// candidates for human review.
func (r *SupplierItemRepository) ResolvePotential(ctx context.Context, q sqlx.ExtContext, itemID, score int, candidates models.CandidateList) error {
	const qry = `
        UPDATE supplier_items
        SET match_status = 'potential_match', match_score = $2,
            match_candidates = $3, updated_at = NOW()
        WHERE id = $1`

	_, err := q.ExecContext(ctx, qry, itemID, score, candidates)
	return err
}

// ResolveNeedsCategory flags an item that cannot be matched blind.
func (r *SupplierItemRepository) ResolveNeedsCategory(ctx context.Context, q sqlx.ExtContext, itemID int) error {
	const qry = `
        UPDATE supplier_items
        SET match_status = 'needs_category', match_score = NULL,
            match_candidates = NULL, updated_at = NOW()
        WHERE id = $1`

	_, err := q.ExecContext(ctx, qry, itemID)
	return err
}

// Unlink detaches an item from its product, remembering the vacated product
// for audit and aggregate recomputation.
func (r *SupplierItemRepository) Unlink(ctx context.Context, q sqlx.ExtContext, itemID int, previousProductID *int) error {
	const qry = `
        UPDATE supplier_items
        SET match_status = 'unmatched', product_id = NULL, match_score = NULL,
            match_candidates = NULL, previous_product_id = $2, updated_at = NOW()
        WHERE id = $1`

	_, err := q.ExecContext(ctx, qry, itemID, previousProductID)
	return err
}

// MergeCharacteristics folds the extracted attributes into the stored map in
// a single statement. The column is the right operand of ||, so values
// already present - including ones written between the caller's read and
// this update - always win over extracted ones.
func (r *SupplierItemRepository) MergeCharacteristics(ctx context.Context, itemID int, extracted models.Characteristics) error {
	const qry = `
        UPDATE supplier_items
        SET characteristics = $2::jsonb || characteristics, updated_at = NOW()
        WHERE id = $1`

	_, err := r.db.ExecContext(ctx, qry, itemID, extracted)
	return err
}

// DB exposes the underlying handle for non-transactional reads.
func (r *SupplierItemRepository) DB() *sqlx.DB {
	return r.db
}
