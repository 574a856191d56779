package utils

import "errors"

// Common application errors used across services.
var (
	ErrItemNotFound           = errors.New("ITEM_NOT_FOUND")
	ErrProductNotFound        = errors.New("PRODUCT_NOT_FOUND")
	ErrProductArchived        = errors.New("PRODUCT_ARCHIVED")
	ErrCategoryNotFound       = errors.New("CATEGORY_NOT_FOUND")
	ErrReviewNotFound         = errors.New("REVIEW_NOT_FOUND")
	ErrReviewNotPending       = errors.New("REVIEW_NOT_PENDING")
	ErrInvalidTransition      = errors.New("INVALID_TRANSITION")
	ErrInvalidAction          = errors.New("INVALID_ACTION")
	ErrCandidateNotFound      = errors.New("CANDIDATE_NOT_FOUND")
	ErrMissingProductID       = errors.New("MISSING_PRODUCT_ID")
	ErrStrategyNotFound       = errors.New("STRATEGY_NOT_FOUND")
	ErrInvalidToken           = errors.New("INVALID_TOKEN")
	ErrInvalidCharacteristics = errors.New("INVALID_CHARACTERISTICS")
)
