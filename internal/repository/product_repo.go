package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/supplysync/catalog_api/internal/models"
)

// ProductRepository handles data access for canonical products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*models.Product, error) {
	const qry = `SELECT * FROM products WHERE id = $1 LIMIT 1`

	var p models.Product
	if err := sqlx.GetContext(ctx, q, &p, qry, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// ListCandidates returns the blocked candidate set for a category: products
// in that category plus uncategorized ones, archived excluded.
func (r *ProductRepository) ListCandidates(ctx context.Context, q sqlx.ExtContext, categoryID int) ([]models.Product, error) {
	const qry = `
        SELECT * FROM products
        WHERE (category_id = $1 OR category_id IS NULL)
        AND status != 'archived'
        ORDER BY id`

	var products []models.Product
	if err := sqlx.SelectContext(ctx, q, &products, qry, categoryID); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateDraft inserts a new draft product created from a supplier item's
// name. Aggregates start empty; the recalc task fills them once the item is
// linked.
func (r *ProductRepository) CreateDraft(ctx context.Context, q sqlx.ExtContext, name string, categoryID *int, internalSKU string) (*models.Product, error) {
	const qry = `
        INSERT INTO products (internal_sku, name, category_id, status, availability, currency_code, created_at, updated_at)
        VALUES ($1, $2, $3, 'draft', false, 'USD', NOW(), NOW())
        RETURNING *`

	var p models.Product
	if err := sqlx.GetContext(ctx, q, &p, qry, internalSKU, name, categoryID); err != nil {
		return nil, err
	}
	return &p, nil
}

// RecalcAggregates recomputes the derived min_price/availability of one
// product from its currently linked items, in a single statement. A product
// with zero linked items gets NULL/false. The statement is a pure function
// of current state, so concurrent invocations are harmless (last writer
// computes the same values).
func (r *ProductRepository) RecalcAggregates(ctx context.Context, q sqlx.ExtContext, productID int) error {
	const qry = `
        UPDATE products p
        SET min_price = agg.min_price,
            availability = COALESCE(agg.availability, false),
            updated_at = NOW()
        FROM (
            SELECT MIN(current_price) AS min_price, BOOL_OR(in_stock) AS availability
            FROM supplier_items
            WHERE product_id = $1
            AND match_status IN ('auto_matched', 'verified_match')
        ) agg
        WHERE p.id = $1`

	_, err := q.ExecContext(ctx, qry, productID)
	return err
}

// DB exposes the underlying handle for non-transactional calls.
func (r *ProductRepository) DB() *sqlx.DB {
	return r.db
}
