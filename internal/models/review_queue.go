package models

import "time"

// ReviewStatus enumerates the states of a review queue entry.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
	ReviewStatusExpired  ReviewStatus = "expired"
)

// MatchReviewQueueItem is a pending human decision on a medium-confidence
// match. At most one pending entry exists per supplier item (enforced by a
// partial unique index).
type MatchReviewQueueItem struct {
	ID                int           `db:"id" json:"id"`
	SupplierItemID    int           `db:"supplier_item_id" json:"supplierItemId"`
	CandidateProducts CandidateList `db:"candidate_products" json:"candidateProducts"`
	Status            ReviewStatus  `db:"status" json:"status"`
	CreatedAt         time.Time     `db:"created_at" json:"createdAt"`
	ExpiresAt         time.Time     `db:"expires_at" json:"expiresAt"`
	ResolvedAt        *time.Time    `db:"resolved_at" json:"resolvedAt,omitempty"`
	ResolvedBy        *string       `db:"resolved_by" json:"resolvedBy,omitempty"`
}

// ReviewQueueStat is one row of the counts-by-status aggregation, grouped by
// supplier and category.
type ReviewQueueStat struct {
	Status     ReviewStatus `db:"status" json:"status"`
	SupplierID int          `db:"supplier_id" json:"supplierId"`
	CategoryID *int         `db:"category_id" json:"categoryId,omitempty"`
	Count      int          `db:"count" json:"count"`
}

// ReviewCandidateRow is one result of the scored-candidate search: a pending
// review entry joined with its supplier item.
type ReviewCandidateRow struct {
	ReviewID       int           `db:"review_id" json:"reviewId"`
	SupplierItemID int           `db:"supplier_item_id" json:"supplierItemId"`
	ItemName       string        `db:"item_name" json:"itemName"`
	SupplierID     int           `db:"supplier_id" json:"supplierId"`
	CategoryID     *int          `db:"category_id" json:"categoryId,omitempty"`
	MatchScore     *int          `db:"match_score" json:"matchScore,omitempty"`
	Candidates     CandidateList `db:"candidate_products" json:"candidates"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	ExpiresAt      time.Time     `db:"expires_at" json:"expiresAt"`
}
