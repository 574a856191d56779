package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/supplysync/catalog_api/internal/models"
)

// CategoryRepository handles read access to the category hierarchy. The
// hierarchy is owned by the catalog collaborator; this pipeline only reads
// it for blocking and filter validation.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetByID returns a single category by id.
func (r *CategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	const qry = `SELECT * FROM categories WHERE id = $1 LIMIT 1`

	var c models.Category
	if err := r.db.GetContext(ctx, &c, qry, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &c, nil
}

// List returns all categories.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	const qry = `SELECT * FROM categories ORDER BY id`

	var cats []models.Category
	if err := r.db.SelectContext(ctx, &cats, qry); err != nil {
		return nil, err
	}
	return cats, nil
}
