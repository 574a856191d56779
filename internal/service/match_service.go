package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/config"
	"github.com/supplysync/catalog_api/internal/matching"
	"github.com/supplysync/catalog_api/internal/models"
	"github.com/supplysync/catalog_api/internal/queue"
	"github.com/supplysync/catalog_api/internal/sse"
	"github.com/supplysync/catalog_api/internal/utils"
)

// MatchService runs the batch-matching decision policy: claim unmatched
// supplier items, score them against blocked candidates and resolve each to
// auto-link, review, new product or needs_category. The similarity algorithm
// is pluggable; the thresholds here are the contract.
type MatchService struct {
	items    ItemStore
	products ProductStore
	reviews  ReviewStore
	audits   AuditStore
	tx       TxRunner
	strategy matching.Strategy
	queue    queue.Queue
	notifier sse.ReviewNotifier
	cfg      config.MatchConfig
	retries  int
}

// NewMatchService constructs a MatchService.
func NewMatchService(
	items ItemStore,
	products ProductStore,
	reviews ReviewStore,
	audits AuditStore,
	tx TxRunner,
	strategy matching.Strategy,
	q queue.Queue,
	notifier sse.ReviewNotifier,
	cfg config.MatchConfig,
	maxRetries int,
) *MatchService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	return &MatchService{
		items:    items,
		products: products,
		reviews:  reviews,
		audits:   audits,
		tx:       tx,
		strategy: strategy,
		queue:    q,
		notifier: notifier,
		cfg:      cfg,
		retries:  maxRetries,
	}
}

// BatchResult summarizes one matching pass.
type BatchResult struct {
	Claimed       int
	AutoMatched   int
	Potential     int
	NewProducts   int
	NeedsCategory int

	queuedReviews []queuedReview
}

// queuedReview carries the data for a review.created notification until the
// transaction commits.
type queuedReview struct {
	itemID   int
	itemName string
	topScore int
}

// RunBatch claims up to batchSize unmatched items (optionally restricted to
// one category) and resolves each inside a single transaction. Follow-up
// tasks are published after commit so downstream stages never observe
// uncommitted state.
func (s *MatchService) RunBatch(ctx context.Context, categoryID *int, batchSize int) (*BatchResult, error) {
	if batchSize <= 0 {
		batchSize = s.cfg.BatchSize
	}

	result := &BatchResult{}
	var followUps []*models.Task

	err := s.tx.RunInTx(ctx, func(q sqlx.ExtContext) error {
		items, err := s.items.ClaimUnmatched(ctx, q, categoryID, batchSize)
		if err != nil {
			return err
		}
		result.Claimed = len(items)

		for i := range items {
			tasks, err := s.processItem(ctx, q, &items[i], result)
			if err != nil {
				return err
			}
			followUps = append(followUps, tasks...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, task := range followUps {
		if err := s.queue.Publish(ctx, task); err != nil {
			log.Error().Err(err).Str("task_id", task.ID).Str("type", string(task.Type)).Msg("Failed to publish follow-up task")
			return result, err
		}
	}
	for _, r := range result.queuedReviews {
		s.notifier.NotifyReviewCreated(r.itemID, r.itemName, r.topScore)
	}

	log.Info().
		Int("claimed", result.Claimed).
		Int("auto_matched", result.AutoMatched).
		Int("potential", result.Potential).
		Int("new_products", result.NewProducts).
		Int("needs_category", result.NeedsCategory).
		Str("strategy", s.strategy.Name()).
		Msg("Match batch completed")
	return result, nil
}

// processItem applies the decision policy to one claimed item and returns
// the follow-up tasks to publish after commit.
func (s *MatchService) processItem(ctx context.Context, q sqlx.ExtContext, item *models.SupplierItem, result *BatchResult) ([]*models.Task, error) {
	// Claimed rows are unmatched by construction; this guard keeps a re-run
	// over stale data from touching resolved items.
	if item.MatchStatus != models.MatchStatusUnmatched {
		return nil, nil
	}

	if item.CategoryID == nil {
		if err := s.items.ResolveNeedsCategory(ctx, q, item.ID); err != nil {
			return nil, err
		}
		if err := s.audit(ctx, q, item, models.AuditActionNeedsCategory, models.MatchStatusNeedsCategory, nil); err != nil {
			return nil, err
		}
		result.NeedsCategory++
		log.Warn().Int("item_id", item.ID).Msg("Item has no category, flagged for operator attention")
		return nil, nil
	}

	candidates, err := s.products.ListCandidates(ctx, q, *item.CategoryID)
	if err != nil {
		return nil, err
	}
	ranked := s.strategy.FindMatches(item, candidates)

	if len(ranked) == 0 || ranked[0].Score < s.cfg.PotentialThreshold {
		return s.createNewProduct(ctx, q, item, result)
	}

	top := ranked[0]
	if top.Score >= s.cfg.AutoThreshold {
		if err := s.items.ResolveLink(ctx, q, item.ID, top.ProductID, models.MatchStatusAutoMatched, &top.Score); err != nil {
			return nil, err
		}
		if err := s.audit(ctx, q, item, models.AuditActionAutoMatch, models.MatchStatusAutoMatched, &top.ProductID); err != nil {
			return nil, err
		}
		result.AutoMatched++
		log.Info().Int("item_id", item.ID).Int("product_id", top.ProductID).Int("score", top.Score).Msg("Item auto-matched")
		return s.chain(item.ID, []int{top.ProductID}, models.TriggerAutoMatch)
	}

	// Review band: store top-5 candidates and park the decision with a human.
	top5 := ranked
	if len(top5) > 5 {
		top5 = top5[:5]
	}
	if err := s.items.ResolvePotential(ctx, q, item.ID, top.Score, top5); err != nil {
		return nil, err
	}
	expiresAt := time.Now().AddDate(0, 0, s.cfg.ReviewExpirationDays)
	if err := s.reviews.Create(ctx, q, item.ID, top5, expiresAt); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, q, item, models.AuditActionPotential, models.MatchStatusPotentialMatch, nil); err != nil {
		return nil, err
	}
	result.Potential++
	result.queuedReviews = append(result.queuedReviews, queuedReview{itemID: item.ID, itemName: item.Name, topScore: top.Score})
	log.Info().Int("item_id", item.ID).Int("score", top.Score).Int("candidates", len(top5)).Msg("Item queued for review")

	enrich, err := queue.NewTask(models.TaskEnrichItem, models.EnrichItemPayload{SupplierItemID: item.ID}, s.retries)
	if err != nil {
		return nil, err
	}
	return []*models.Task{enrich}, nil
}

func (s *MatchService) createNewProduct(ctx context.Context, q sqlx.ExtContext, item *models.SupplierItem, result *BatchResult) ([]*models.Task, error) {
	sku, err := utils.GenerateInternalSKU(item.Name)
	if err != nil {
		return nil, err
	}
	product, err := s.products.CreateDraft(ctx, q, item.Name, item.CategoryID, sku)
	if err != nil {
		return nil, err
	}
	if err := s.items.ResolveLink(ctx, q, item.ID, product.ID, models.MatchStatusAutoMatched, nil); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, q, item, models.AuditActionNewProduct, models.MatchStatusAutoMatched, &product.ID); err != nil {
		return nil, err
	}
	result.NewProducts++
	log.Info().Int("item_id", item.ID).Int("product_id", product.ID).Str("sku", product.InternalSKU).Msg("Created draft product for unmatched item")
	return s.chain(item.ID, []int{product.ID}, models.TriggerAutoMatch)
}

// chain builds the enrich + recalc follow-ups of a successful link.
func (s *MatchService) chain(itemID int, productIDs []int, trigger models.RecalcTrigger) ([]*models.Task, error) {
	enrich, err := queue.NewTask(models.TaskEnrichItem, models.EnrichItemPayload{SupplierItemID: itemID}, s.retries)
	if err != nil {
		return nil, err
	}
	recalc, err := queue.NewTask(models.TaskRecalcAggregates, models.RecalcAggregatesPayload{ProductIDs: productIDs, Trigger: trigger}, s.retries)
	if err != nil {
		return nil, err
	}
	return []*models.Task{enrich, recalc}, nil
}

func (s *MatchService) audit(ctx context.Context, q sqlx.ExtContext, item *models.SupplierItem, action models.AuditAction, to models.MatchStatus, productID *int) error {
	return s.audits.Insert(ctx, q, &models.MatchAuditLog{
		SupplierItemID: item.ID,
		Action:         action,
		Actor:          models.SystemActor,
		FromStatus:     item.MatchStatus,
		ToStatus:       to,
		ProductID:      productID,
	})
}
