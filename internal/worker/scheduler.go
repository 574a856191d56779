package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/models"
	"github.com/supplysync/catalog_api/internal/queue"
)

// Scheduler enqueues the recurring pipeline tasks: a batch-matching pass and
// the review queue expiry sweep. The work itself happens on the worker pool;
// the scheduler only publishes.
type Scheduler struct {
	queue               queue.Queue
	matchInterval       time.Duration
	expireSweepInterval time.Duration
	maxRetries          int
}

// NewScheduler constructs a Scheduler.
func NewScheduler(q queue.Queue, matchInterval, expireSweepInterval time.Duration, maxRetries int) *Scheduler {
	return &Scheduler{
		queue:               q,
		matchInterval:       matchInterval,
		expireSweepInterval: expireSweepInterval,
		maxRetries:          maxRetries,
	}
}

// Start runs the scheduling loops until the context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info().
		Dur("match_interval", s.matchInterval).
		Dur("expire_sweep_interval", s.expireSweepInterval).
		Msg("Starting scheduler")

	matchTicker := time.NewTicker(s.matchInterval)
	defer matchTicker.Stop()
	expireTicker := time.NewTicker(s.expireSweepInterval)
	defer expireTicker.Stop()

	for {
		select {
		case <-matchTicker.C:
			s.enqueue(ctx, models.TaskMatchItems, models.MatchItemsPayload{})
		case <-expireTicker.C:
			s.enqueue(ctx, models.TaskExpireReviewQueue, models.ExpireReviewQueuePayload{})
		case <-ctx.Done():
			log.Info().Msg("Scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) enqueue(ctx context.Context, taskType models.TaskType, payload any) {
	task, err := queue.NewTask(taskType, payload, s.maxRetries)
	if err != nil {
		log.Error().Err(err).Str("type", string(taskType)).Msg("Failed to build scheduled task")
		return
	}
	if err := s.queue.Publish(ctx, task); err != nil {
		log.Error().Err(err).Str("type", string(taskType)).Msg("Failed to enqueue scheduled task")
	}
}
