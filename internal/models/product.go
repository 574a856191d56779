package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus enumerates the lifecycle states of a canonical product.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// Product is a canonical catalog entry that supplier items link to.
//
// MinPrice and Availability are derived aggregates over the linked supplier
// items and must never be hand-edited; the aggregator recomputes them.
// RetailPrice/WholesalePrice/CurrencyCode are canonical values owned by the
// catalog team and are never mutated by this pipeline.
type Product struct {
	ID             int                 `db:"id" json:"id"`
	InternalSKU    string              `db:"internal_sku" json:"internalSku"`
	Name           string              `db:"name" json:"name"`
	CategoryID     *int                `db:"category_id" json:"categoryId,omitempty"`
	Status         ProductStatus       `db:"status" json:"status"`
	MinPrice       decimal.NullDecimal `db:"min_price" json:"minPrice,omitempty"`
	Availability   bool                `db:"availability" json:"availability"`
	MRP            decimal.NullDecimal `db:"mrp" json:"mrp,omitempty"`
	RetailPrice    decimal.NullDecimal `db:"retail_price" json:"retailPrice,omitempty"`
	WholesalePrice decimal.NullDecimal `db:"wholesale_price" json:"wholesalePrice,omitempty"`
	CurrencyCode   string              `db:"currency_code" json:"currencyCode"`
	CreatedAt      time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updatedAt"`
}
