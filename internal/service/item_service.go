package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/supplysync/catalog_api/internal/models"
	"github.com/supplysync/catalog_api/internal/utils"
)

// ItemDetail is a supplier item with its full linkage history.
type ItemDetail struct {
	Item       *models.SupplierItem   `json:"item"`
	AuditTrail []models.MatchAuditLog `json:"auditTrail"`
}

// ItemService serves read access to supplier items for the admin surface.
type ItemService struct {
	items  ItemStore
	audits AuditStore
	db     sqlx.ExtContext
}

// NewItemService constructs an ItemService.
func NewItemService(items ItemStore, audits AuditStore, db sqlx.ExtContext) *ItemService {
	return &ItemService{items: items, audits: audits, db: db}
}

// GetDetail returns the item together with its audit trail, newest first.
func (s *ItemService) GetDetail(ctx context.Context, itemID int) (*ItemDetail, error) {
	item, err := s.items.GetByID(ctx, s.db, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrItemNotFound
		}
		return nil, err
	}

	trail, err := s.audits.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &ItemDetail{Item: item, AuditTrail: trail}, nil
}
