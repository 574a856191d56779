package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/supplysync/catalog_api/internal/models"
)

// ReviewQueueRepository handles data access for the match review queue.
type ReviewQueueRepository struct {
	db *sqlx.DB
}

// NewReviewQueueRepository creates a new ReviewQueueRepository.
func NewReviewQueueRepository(db *sqlx.DB) *ReviewQueueRepository {
	return &ReviewQueueRepository{db: db}
}

// Create inserts a pending review entry. The partial unique index on
// (supplier_item_id) WHERE status = 'pending' enforces at most one pending
// entry per item; a conflicting insert is a no-op, which makes review
// creation safe to re-run.
func (r *ReviewQueueRepository) Create(ctx context.Context, q sqlx.ExtContext, itemID int, candidates models.CandidateList, expiresAt time.Time) error {
	const qry = `
        INSERT INTO match_review_queue (supplier_item_id, candidate_products, status, created_at, expires_at)
        VALUES ($1, $2, 'pending', NOW(), $3)
        ON CONFLICT (supplier_item_id) WHERE status = 'pending' DO NOTHING`

	_, err := q.ExecContext(ctx, qry, itemID, candidates, expiresAt)
	return err
}

// GetByID returns a single review entry by id.
func (r *ReviewQueueRepository) GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*models.MatchReviewQueueItem, error) {
	const qry = `SELECT * FROM match_review_queue WHERE id = $1 LIMIT 1`

	var entry models.MatchReviewQueueItem
	if err := sqlx.GetContext(ctx, q, &entry, qry, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &entry, nil
}

// ResolvePendingForItem closes any pending entry for a supplier item. Used
// when an override resolves the item directly, bypassing the queue entry.
func (r *ReviewQueueRepository) ResolvePendingForItem(ctx context.Context, q sqlx.ExtContext, itemID int, status models.ReviewStatus, actor string) error {
	const qry = `
        UPDATE match_review_queue
        SET status = $2, resolved_at = NOW(), resolved_by = $3
        WHERE supplier_item_id = $1 AND status = 'pending'`

	_, err := q.ExecContext(ctx, qry, itemID, status, actor)
	return err
}

// ExpireDue flips pending entries past their expiry to expired and returns
// how many were swept. The underlying supplier items keep their
// potential_match status; a later match pass may re-evaluate them.
func (r *ReviewQueueRepository) ExpireDue(ctx context.Context) (int64, error) {
	const qry = `
        UPDATE match_review_queue
        SET status = 'expired', resolved_at = NOW()
        WHERE status = 'pending' AND expires_at < NOW()`

	res, err := r.db.ExecContext(ctx, qry)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListPendingFilter narrows the pending listing.
type ListPendingFilter struct {
	SupplierID *int
	CategoryID *int
	Page       int
	Limit      int
}

// ListPending returns pending entries joined with their supplier items,
// newest first, with a total count for pagination.
func (r *ReviewQueueRepository) ListPending(ctx context.Context, f *ListPendingFilter) ([]models.ReviewCandidateRow, int, error) {
	page, limit := f.Page, f.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const baseWhere = `
        FROM match_review_queue rq
        JOIN supplier_items si ON si.id = rq.supplier_item_id
        WHERE rq.status = 'pending'
        AND ($1::int IS NULL OR si.supplier_id = $1)
        AND ($2::int IS NULL OR si.category_id = $2)`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) `+baseWhere, f.SupplierID, f.CategoryID); err != nil {
		return nil, 0, err
	}

	listQuery := `
        SELECT rq.id AS review_id, rq.supplier_item_id, si.name AS item_name,
               si.supplier_id, si.category_id, si.match_score,
               rq.candidate_products, rq.created_at, rq.expires_at ` +
		baseWhere + `
        ORDER BY rq.created_at DESC LIMIT $3 OFFSET $4`

	var rows []models.ReviewCandidateRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, f.SupplierID, f.CategoryID, limit, offset); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountsByStatus aggregates review entries by status, supplier and category.
func (r *ReviewQueueRepository) CountsByStatus(ctx context.Context) ([]models.ReviewQueueStat, error) {
	const qry = `
        SELECT rq.status, si.supplier_id, si.category_id, COUNT(1) AS count
        FROM match_review_queue rq
        JOIN supplier_items si ON si.id = rq.supplier_item_id
        GROUP BY rq.status, si.supplier_id, si.category_id
        ORDER BY rq.status, si.supplier_id, si.category_id`

	var stats []models.ReviewQueueStat
	if err := r.db.SelectContext(ctx, &stats, qry); err != nil {
		return nil, err
	}
	return stats, nil
}

// SearchCandidatesFilter narrows the scored-candidate search.
type SearchCandidatesFilter struct {
	MinScore   *int
	MaxScore   *int
	From       *time.Time
	To         *time.Time
	CategoryID *int
	Page       int
	Limit      int
}

// SearchCandidates returns pending review rows filtered by score range,
// creation date range and category.
func (r *ReviewQueueRepository) SearchCandidates(ctx context.Context, f *SearchCandidatesFilter) ([]models.ReviewCandidateRow, int, error) {
	page, limit := f.Page, f.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	conds := []string{"rq.status = 'pending'"}
	args := []any{}
	idx := 1
	add := func(cond string, v any) {
		conds = append(conds, fmt.Sprintf(cond, idx))
		args = append(args, v)
		idx++
	}
	if f.MinScore != nil {
		add("si.match_score >= $%d", *f.MinScore)
	}
	if f.MaxScore != nil {
		add("si.match_score <= $%d", *f.MaxScore)
	}
	if f.From != nil {
		add("rq.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("rq.created_at <= $%d", *f.To)
	}
	if f.CategoryID != nil {
		add("si.category_id = $%d", *f.CategoryID)
	}

	baseWhere := `
        FROM match_review_queue rq
        JOIN supplier_items si ON si.id = rq.supplier_item_id
        WHERE ` + strings.Join(conds, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) `+baseWhere, args...); err != nil {
		return nil, 0, err
	}

	listQuery := `
        SELECT rq.id AS review_id, rq.supplier_item_id, si.name AS item_name,
               si.supplier_id, si.category_id, si.match_score,
               rq.candidate_products, rq.created_at, rq.expires_at ` +
		baseWhere +
		fmt.Sprintf(` ORDER BY si.match_score DESC, rq.created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	var rows []models.ReviewCandidateRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DB exposes the underlying handle for non-transactional calls.
func (r *ReviewQueueRepository) DB() *sqlx.DB {
	return r.db
}
