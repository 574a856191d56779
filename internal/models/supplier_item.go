package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus enumerates the linkage states of a supplier item.
type MatchStatus string

const (
	MatchStatusUnmatched      MatchStatus = "unmatched"
	MatchStatusAutoMatched    MatchStatus = "auto_matched"
	MatchStatusPotentialMatch MatchStatus = "potential_match"
	MatchStatusVerifiedMatch  MatchStatus = "verified_match"
	MatchStatusNeedsCategory  MatchStatus = "needs_category"
)

// IsLinked reports whether the status carries a product linkage.
func (s MatchStatus) IsLinked() bool {
	return s == MatchStatusAutoMatched || s == MatchStatusVerifiedMatch
}

// Characteristics is the open attribute map stored as JSONB. Values are
// scalars (string, float64, bool) after a round-trip through JSON.
type Characteristics map[string]any

// Value implements driver.Valuer for JSONB storage.
func (c Characteristics) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (c *Characteristics) Scan(src any) error {
	if src == nil {
		*c = Characteristics{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("characteristics: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, c)
}

// Validate rejects non-scalar values and empty keys. Called at the API and
// ingestion boundaries; internally the map is trusted.
func (c Characteristics) Validate() error {
	for k, v := range c {
		if k == "" {
			return fmt.Errorf("characteristics: empty attribute key")
		}
		switch v.(type) {
		case string, float64, int, int64, bool, nil:
		default:
			return fmt.Errorf("characteristics: attribute %q has non-scalar value %T", k, v)
		}
	}
	return nil
}

// MatchCandidate is one scored canonical product proposal for an item.
type MatchCandidate struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
}

// CandidateList is an ordered (descending score) candidate set, stored as JSONB.
type CandidateList []MatchCandidate

// Value implements driver.Valuer.
func (l CandidateList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *CandidateList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("candidate list: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, l)
}

// SupplierItem is one priced, stocked listing ingested from a supplier.
// Linkage fields (match_status, match_score, match_candidates, product_id)
// are owned exclusively by the matching pipeline and manual overrides.
type SupplierItem struct {
	ID                int             `db:"id" json:"id"`
	SupplierID        int             `db:"supplier_id" json:"supplierId"`
	Name              string          `db:"name" json:"name"`
	CurrentPrice      decimal.Decimal `db:"current_price" json:"currentPrice"`
	InStock           bool            `db:"in_stock" json:"inStock"`
	Characteristics   Characteristics `db:"characteristics" json:"characteristics"`
	CategoryID        *int            `db:"category_id" json:"categoryId,omitempty"`
	MatchStatus       MatchStatus     `db:"match_status" json:"matchStatus"`
	MatchScore        *int            `db:"match_score" json:"matchScore,omitempty"`
	MatchCandidates   CandidateList   `db:"match_candidates" json:"matchCandidates,omitempty"`
	ProductID         *int            `db:"product_id" json:"productId,omitempty"`
	PreviousProductID *int            `db:"previous_product_id" json:"previousProductId,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`
}
