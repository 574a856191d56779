package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/supplysync/catalog_api/internal/models"
	"github.com/supplysync/catalog_api/internal/repository"
)

// Store interfaces consumed by the services. The repository package provides
// the PostgreSQL implementations; tests substitute in-memory fakes. Methods
// taking a sqlx.ExtContext run against the caller's transaction.

// TxRunner executes a function inside one transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error
}

// ItemStore is the supplier item access needed by the pipeline.
type ItemStore interface {
	ClaimUnmatched(ctx context.Context, q sqlx.ExtContext, categoryID *int, limit int) ([]models.SupplierItem, error)
	GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*models.SupplierItem, error)
	GetByIDLocked(ctx context.Context, q sqlx.ExtContext, id int) (*models.SupplierItem, error)
	ResolveLink(ctx context.Context, q sqlx.ExtContext, itemID, productID int, status models.MatchStatus, score *int) error
	ResolvePotential(ctx context.Context, q sqlx.ExtContext, itemID, score int, candidates models.CandidateList) error
	ResolveNeedsCategory(ctx context.Context, q sqlx.ExtContext, itemID int) error
	Unlink(ctx context.Context, q sqlx.ExtContext, itemID int, previousProductID *int) error
	MergeCharacteristics(ctx context.Context, itemID int, extracted models.Characteristics) error
}

// ProductStore is the product access needed by the pipeline.
type ProductStore interface {
	GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*models.Product, error)
	ListCandidates(ctx context.Context, q sqlx.ExtContext, categoryID int) ([]models.Product, error)
	CreateDraft(ctx context.Context, q sqlx.ExtContext, name string, categoryID *int, internalSKU string) (*models.Product, error)
	RecalcAggregates(ctx context.Context, q sqlx.ExtContext, productID int) error
}

// ReviewStore is the review queue access needed by the pipeline.
type ReviewStore interface {
	Create(ctx context.Context, q sqlx.ExtContext, itemID int, candidates models.CandidateList, expiresAt time.Time) error
	GetByID(ctx context.Context, q sqlx.ExtContext, id int) (*models.MatchReviewQueueItem, error)
	ResolvePendingForItem(ctx context.Context, q sqlx.ExtContext, itemID int, status models.ReviewStatus, actor string) error
	ExpireDue(ctx context.Context) (int64, error)
	ListPending(ctx context.Context, f *repository.ListPendingFilter) ([]models.ReviewCandidateRow, int, error)
	CountsByStatus(ctx context.Context) ([]models.ReviewQueueStat, error)
	SearchCandidates(ctx context.Context, f *repository.SearchCandidatesFilter) ([]models.ReviewCandidateRow, int, error)
}

// AuditStore records linkage transitions.
type AuditStore interface {
	Insert(ctx context.Context, q sqlx.ExtContext, entry *models.MatchAuditLog) error
	ListByItem(ctx context.Context, itemID int) ([]models.MatchAuditLog, error)
}
