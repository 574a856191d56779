package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/models"
	"github.com/supplysync/catalog_api/internal/queue"
	"github.com/supplysync/catalog_api/internal/utils"
)

// OverrideAction enumerates the manual override operations.
type OverrideAction string

const (
	ActionLink    OverrideAction = "link"
	ActionUnlink  OverrideAction = "unlink"
	ActionReset   OverrideAction = "reset"
	ActionApprove OverrideAction = "approve"
	ActionReject  OverrideAction = "reject"
)

// OverrideRequest is one operator decision on a supplier item.
type OverrideRequest struct {
	Action         OverrideAction `json:"action" binding:"required"`
	SupplierItemID int            `json:"supplierItemId" binding:"required"`
	ProductID      *int           `json:"productId,omitempty"`
	Actor          string         `json:"-"`
}

// OverrideResult is the item/product state after the transition.
type OverrideResult struct {
	Item    *models.SupplierItem `json:"item"`
	Product *models.Product      `json:"product,omitempty"`
}

// OverrideService applies the manual override state machine:
//
//	unmatched|auto_matched|potential_match --link--> verified_match
//	potential_match --approve--> verified_match
//	potential_match --reject--> verified_match (new draft product)
//	auto_matched|verified_match --unlink--> unmatched
//	verified_match --reset--> unmatched (privileged)
//
// verified_match is protected: the automated matcher never selects it, so a
// manual decision stands until another human changes it. Every transition is
// audited with the acting operator.
type OverrideService struct {
	items    ItemStore
	products ProductStore
	reviews  ReviewStore
	audits   AuditStore
	tx       TxRunner
	queue    queue.Queue
	retries  int
}

// NewOverrideService constructs an OverrideService.
func NewOverrideService(
	items ItemStore,
	products ProductStore,
	reviews ReviewStore,
	audits AuditStore,
	tx TxRunner,
	q queue.Queue,
	maxRetries int,
) *OverrideService {
	return &OverrideService{
		items:    items,
		products: products,
		reviews:  reviews,
		audits:   audits,
		tx:       tx,
		queue:    q,
		retries:  maxRetries,
	}
}

// Apply executes one override transition in a single transaction, then
// enqueues aggregate recomputation for every affected product.
func (s *OverrideService) Apply(ctx context.Context, req *OverrideRequest) (*OverrideResult, error) {
	if req.Actor == "" {
		req.Actor = "unknown"
	}

	var (
		result    OverrideResult
		recalcIDs []int
		trigger   models.RecalcTrigger
	)

	err := s.tx.RunInTx(ctx, func(q sqlx.ExtContext) error {
		item, err := s.items.GetByIDLocked(ctx, q, req.SupplierItemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return utils.ErrItemNotFound
			}
			return err
		}

		switch req.Action {
		case ActionLink:
			recalcIDs, err = s.link(ctx, q, item, req)
			trigger = models.TriggerManualLink
		case ActionApprove:
			recalcIDs, err = s.approve(ctx, q, item, req)
			trigger = models.TriggerManualLink
		case ActionReject:
			recalcIDs, err = s.reject(ctx, q, item, req)
			trigger = models.TriggerManualLink
		case ActionUnlink:
			recalcIDs, err = s.unlink(ctx, q, item, req, models.AuditActionUnlink)
			trigger = models.TriggerManualUnlink
		case ActionReset:
			if item.MatchStatus != models.MatchStatusVerifiedMatch {
				return utils.ErrInvalidTransition
			}
			recalcIDs, err = s.unlink(ctx, q, item, req, models.AuditActionReset)
			trigger = models.TriggerManualUnlink
		default:
			return utils.ErrInvalidAction
		}
		if err != nil {
			return err
		}

		// Re-read to return committed-to-be state.
		fresh, err := s.items.GetByID(ctx, q, item.ID)
		if err != nil {
			return err
		}
		result.Item = fresh
		if fresh.ProductID != nil {
			product, err := s.products.GetByID(ctx, q, *fresh.ProductID)
			if err != nil {
				return err
			}
			result.Product = product
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(recalcIDs) > 0 {
		task, err := queue.NewTask(models.TaskRecalcAggregates, models.RecalcAggregatesPayload{
			ProductIDs: recalcIDs,
			Trigger:    trigger,
		}, s.retries)
		if err == nil {
			err = s.queue.Publish(ctx, task)
		}
		if err != nil {
			// The override itself is committed; a lost recalc is repaired by
			// the next trigger on the same product.
			log.Error().Err(err).Ints("product_ids", recalcIDs).Msg("Failed to enqueue aggregate recalculation after override")
		}
	}

	log.Info().
		Str("action", string(req.Action)).
		Int("item_id", req.SupplierItemID).
		Str("actor", req.Actor).
		Msg("Manual override applied")
	return &result, nil
}

// link forces a verified link to an explicit product.
func (s *OverrideService) link(ctx context.Context, q sqlx.ExtContext, item *models.SupplierItem, req *OverrideRequest) ([]int, error) {
	if item.MatchStatus == models.MatchStatusVerifiedMatch {
		// A standing manual decision requires an explicit reset first.
		return nil, utils.ErrInvalidTransition
	}
	if req.ProductID == nil {
		return nil, utils.ErrMissingProductID
	}
	product, err := s.validProduct(ctx, q, *req.ProductID)
	if err != nil {
		return nil, err
	}

	if err := s.items.ResolveLink(ctx, q, item.ID, product.ID, models.MatchStatusVerifiedMatch, nil); err != nil {
		return nil, err
	}
	if err := s.reviews.ResolvePendingForItem(ctx, q, item.ID, models.ReviewStatusApproved, req.Actor); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, q, item, req, models.AuditActionLink, models.MatchStatusVerifiedMatch, &product.ID, item.ProductID); err != nil {
		return nil, err
	}

	recalc := []int{product.ID}
	if item.ProductID != nil && *item.ProductID != product.ID {
		recalc = append(recalc, *item.ProductID)
	}
	return recalc, nil
}

// approve confirms one of the stored candidates of a potential match.
func (s *OverrideService) approve(ctx context.Context, q sqlx.ExtContext, item *models.SupplierItem, req *OverrideRequest) ([]int, error) {
	if item.MatchStatus != models.MatchStatusPotentialMatch {
		return nil, utils.ErrInvalidTransition
	}
	if req.ProductID == nil {
		return nil, utils.ErrMissingProductID
	}

	var chosen *models.MatchCandidate
	for i := range item.MatchCandidates {
		if item.MatchCandidates[i].ProductID == *req.ProductID {
			chosen = &item.MatchCandidates[i]
			break
		}
	}
	if chosen == nil {
		return nil, utils.ErrCandidateNotFound
	}
	if _, err := s.validProduct(ctx, q, chosen.ProductID); err != nil {
		return nil, err
	}

	if err := s.items.ResolveLink(ctx, q, item.ID, chosen.ProductID, models.MatchStatusVerifiedMatch, &chosen.Score); err != nil {
		return nil, err
	}
	if err := s.reviews.ResolvePendingForItem(ctx, q, item.ID, models.ReviewStatusApproved, req.Actor); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, q, item, req, models.AuditActionApprove, models.MatchStatusVerifiedMatch, &chosen.ProductID, nil); err != nil {
		return nil, err
	}
	return []int{chosen.ProductID}, nil
}

// reject discards all candidates and gives the item its own draft product.
func (s *OverrideService) reject(ctx context.Context, q sqlx.ExtContext, item *models.SupplierItem, req *OverrideRequest) ([]int, error) {
	if item.MatchStatus != models.MatchStatusPotentialMatch {
		return nil, utils.ErrInvalidTransition
	}

	sku, err := utils.GenerateInternalSKU(item.Name)
	if err != nil {
		return nil, err
	}
	product, err := s.products.CreateDraft(ctx, q, item.Name, item.CategoryID, sku)
	if err != nil {
		return nil, err
	}

	if err := s.items.ResolveLink(ctx, q, item.ID, product.ID, models.MatchStatusVerifiedMatch, nil); err != nil {
		return nil, err
	}
	if err := s.reviews.ResolvePendingForItem(ctx, q, item.ID, models.ReviewStatusRejected, req.Actor); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, q, item, req, models.AuditActionReject, models.MatchStatusVerifiedMatch, &product.ID, nil); err != nil {
		return nil, err
	}
	return []int{product.ID}, nil
}

// unlink detaches a linked item, recording the vacated product. Shared by
// unlink and (with a stricter precondition) reset.
func (s *OverrideService) unlink(ctx context.Context, q sqlx.ExtContext, item *models.SupplierItem, req *OverrideRequest, action models.AuditAction) ([]int, error) {
	if !item.MatchStatus.IsLinked() || item.ProductID == nil {
		return nil, utils.ErrInvalidTransition
	}
	previous := *item.ProductID

	if err := s.items.Unlink(ctx, q, item.ID, &previous); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, q, item, req, action, models.MatchStatusUnmatched, nil, &previous); err != nil {
		return nil, err
	}
	return []int{previous}, nil
}

func (s *OverrideService) validProduct(ctx context.Context, q sqlx.ExtContext, id int) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, q, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	if product.Status == models.ProductStatusArchived {
		return nil, utils.ErrProductArchived
	}
	return product, nil
}

func (s *OverrideService) audit(ctx context.Context, q sqlx.ExtContext, item *models.SupplierItem, req *OverrideRequest, action models.AuditAction, to models.MatchStatus, productID, previousProductID *int) error {
	return s.audits.Insert(ctx, q, &models.MatchAuditLog{
		SupplierItemID:    item.ID,
		Action:            action,
		Actor:             req.Actor,
		FromStatus:        item.MatchStatus,
		ToStatus:          to,
		ProductID:         productID,
		PreviousProductID: previousProductID,
	})
}
