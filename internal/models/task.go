package models

import (
	"encoding/json"
	"time"
)

// TaskType enumerates the messages carried by the task queue.
type TaskType string

const (
	TaskMatchItems        TaskType = "match_items"
	TaskEnrichItem        TaskType = "enrich_item"
	TaskRecalcAggregates  TaskType = "recalc_aggregates"
	TaskManualOverride    TaskType = "manual_override"
	TaskExpireReviewQueue TaskType = "expire_review_queue"
)

// RecalcTrigger records why an aggregate recomputation was requested. It is
// logged for audit and does not change the computation.
type RecalcTrigger string

const (
	TriggerAutoMatch    RecalcTrigger = "auto_match"
	TriggerManualLink   RecalcTrigger = "manual_link"
	TriggerManualUnlink RecalcTrigger = "manual_unlink"
	TriggerPriceChange  RecalcTrigger = "price_change"
)

// Task is the queue message envelope. Payload holds the type-specific body.
type Task struct {
	ID         string          `json:"id"`
	Type       TaskType        `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount int             `json:"retryCount"`
	MaxRetries int             `json:"maxRetries"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// MatchItemsPayload requests one batch-matching pass.
type MatchItemsPayload struct {
	CategoryID *int `json:"categoryId,omitempty"`
	BatchSize  int  `json:"batchSize"`
}

// EnrichItemPayload requests attribute extraction for one supplier item.
// ExtractorName restricts the run to a single registered extractor; empty
// means all of them.
type EnrichItemPayload struct {
	SupplierItemID int    `json:"supplierItemId"`
	ExtractorName  string `json:"extractorName,omitempty"`
}

// RecalcAggregatesPayload requests aggregate recomputation for products.
type RecalcAggregatesPayload struct {
	ProductIDs []int         `json:"productIds"`
	Trigger    RecalcTrigger `json:"trigger"`
}

// ManualOverridePayload carries an operator decision through the task queue.
type ManualOverridePayload struct {
	Action         string `json:"action"`
	SupplierItemID int    `json:"supplierItemId"`
	ProductID      *int   `json:"productId,omitempty"`
	Actor          string `json:"actor"`
}

// ExpireReviewQueuePayload is the (empty) body of the scheduled expiry sweep.
type ExpireReviewQueuePayload struct{}
