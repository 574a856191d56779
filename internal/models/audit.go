package models

import "time"

// AuditAction enumerates recorded linkage actions. Automated resolutions and
// manual overrides share the same audit table.
type AuditAction string

const (
	AuditActionAutoMatch     AuditAction = "auto_match"
	AuditActionPotential     AuditAction = "potential_match"
	AuditActionNewProduct    AuditAction = "new_product"
	AuditActionNeedsCategory AuditAction = "needs_category"
	AuditActionLink          AuditAction = "link"
	AuditActionUnlink        AuditAction = "unlink"
	AuditActionReset         AuditAction = "reset"
	AuditActionApprove       AuditAction = "approve"
	AuditActionReject        AuditAction = "reject"
	AuditActionSkip          AuditAction = "skip"
)

// SystemActor identifies automated pipeline decisions in the audit trail.
const SystemActor = "system:matcher"

// MatchAuditLog records one linkage transition with the actor who caused it.
type MatchAuditLog struct {
	ID                int         `db:"id" json:"id"`
	SupplierItemID    int         `db:"supplier_item_id" json:"supplierItemId"`
	Action            AuditAction `db:"action" json:"action"`
	Actor             string      `db:"actor" json:"actor"`
	FromStatus        MatchStatus `db:"from_status" json:"fromStatus"`
	ToStatus          MatchStatus `db:"to_status" json:"toStatus"`
	ProductID         *int        `db:"product_id" json:"productId,omitempty"`
	PreviousProductID *int        `db:"previous_product_id" json:"previousProductId,omitempty"`
	CreatedAt         time.Time   `db:"created_at" json:"createdAt"`
}
