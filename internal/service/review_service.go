package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/cache"
	"github.com/supplysync/catalog_api/internal/models"
	"github.com/supplysync/catalog_api/internal/repository"
	"github.com/supplysync/catalog_api/internal/sse"
	"github.com/supplysync/catalog_api/internal/utils"
)

// ReviewService drives the human review workflow over potential matches.
// Approve and reject delegate the item transition to the override state
// machine so manual decisions go through a single audited path.
type ReviewService struct {
	reviews   ReviewStore
	items     ItemStore
	audits    AuditStore
	overrides *OverrideService
	stats     *cache.StatsCache
	notifier  sse.ReviewNotifier
	db        sqlx.ExtContext
}

// NewReviewService constructs a ReviewService. stats may be nil to disable
// caching of queue counts.
func NewReviewService(
	reviews ReviewStore,
	items ItemStore,
	audits AuditStore,
	overrides *OverrideService,
	stats *cache.StatsCache,
	notifier sse.ReviewNotifier,
	db sqlx.ExtContext,
) *ReviewService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	return &ReviewService{
		reviews:   reviews,
		items:     items,
		audits:    audits,
		overrides: overrides,
		stats:     stats,
		notifier:  notifier,
		db:        db,
	}
}

// Approve confirms one of the stored candidates for a pending review entry.
func (s *ReviewService) Approve(ctx context.Context, reviewID int, productID *int, actor string) (*OverrideResult, error) {
	entry, err := s.pendingEntry(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	result, err := s.overrides.Apply(ctx, &OverrideRequest{
		Action:         ActionApprove,
		SupplierItemID: entry.SupplierItemID,
		ProductID:      productID,
		Actor:          actor,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	s.notifier.NotifyReviewResolved(entry.SupplierItemID, string(models.ReviewStatusApproved), actor)
	return result, nil
}

// Reject discards all candidates for a pending entry; the item gets its own
// draft product.
func (s *ReviewService) Reject(ctx context.Context, reviewID int, actor string) (*OverrideResult, error) {
	entry, err := s.pendingEntry(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	result, err := s.overrides.Apply(ctx, &OverrideRequest{
		Action:         ActionReject,
		SupplierItemID: entry.SupplierItemID,
		Actor:          actor,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	s.notifier.NotifyReviewResolved(entry.SupplierItemID, string(models.ReviewStatusRejected), actor)
	return result, nil
}

// Skip records that an operator looked at the entry and deferred. The entry
// stays pending and actionable.
func (s *ReviewService) Skip(ctx context.Context, reviewID int, actor string) error {
	entry, err := s.pendingEntry(ctx, reviewID)
	if err != nil {
		return err
	}

	item, err := s.items.GetByID(ctx, s.db, entry.SupplierItemID)
	if err != nil {
		return err
	}
	return s.audits.Insert(ctx, s.db, &models.MatchAuditLog{
		SupplierItemID: item.ID,
		Action:         models.AuditActionSkip,
		Actor:          actor,
		FromStatus:     item.MatchStatus,
		ToStatus:       item.MatchStatus,
		ProductID:      item.ProductID,
	})
}

// ExpireDue marks pending entries past their deadline as expired. The
// underlying items keep potential_match status; a later match pass may
// re-evaluate them.
func (s *ReviewService) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.reviews.ExpireDue(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("expired", n).Msg("Expired stale review queue entries")
		s.invalidateStats(ctx)
		s.notifier.NotifyReviewsExpired(n)
	}
	return n, nil
}

// Stats returns queue counts grouped by status, supplier and category,
// served from cache when fresh.
func (s *ReviewService) Stats(ctx context.Context) ([]models.ReviewQueueStat, error) {
	if s.stats != nil {
		if cached, err := s.stats.Get(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	stats, err := s.reviews.CountsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	if s.stats != nil {
		if err := s.stats.Set(ctx, stats); err != nil {
			log.Warn().Err(err).Msg("Failed to cache review queue stats")
		}
	}
	return stats, nil
}

// ListPending returns the pending queue page for the review dashboard.
func (s *ReviewService) ListPending(ctx context.Context, f *repository.ListPendingFilter) ([]models.ReviewCandidateRow, int, error) {
	return s.reviews.ListPending(ctx, f)
}

// SearchCandidates filters scored candidates by score range, date range and
// category.
func (s *ReviewService) SearchCandidates(ctx context.Context, f *repository.SearchCandidatesFilter) ([]models.ReviewCandidateRow, int, error) {
	return s.reviews.SearchCandidates(ctx, f)
}

func (s *ReviewService) pendingEntry(ctx context.Context, reviewID int) (*models.MatchReviewQueueItem, error) {
	entry, err := s.reviews.GetByID(ctx, s.db, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrReviewNotFound
		}
		return nil, err
	}
	if entry.Status != models.ReviewStatusPending {
		return nil, utils.ErrReviewNotPending
	}
	return entry, nil
}

func (s *ReviewService) invalidateStats(ctx context.Context) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate review queue stats cache")
	}
}
