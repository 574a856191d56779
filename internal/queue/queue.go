package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/supplysync/catalog_api/internal/models"
)

// Queue is the task transport between pipeline stages. Chaining happens by
// publishing follow-up tasks; a task never blocks waiting on downstream work.
type Queue interface {
	// Publish makes a task immediately available to consumers.
	Publish(ctx context.Context, task *models.Task) error

	// PublishDelayed schedules a task to become available after delay.
	// Used by the dispatcher for retry backoff.
	PublishDelayed(ctx context.Context, task *models.Task, delay time.Duration) error

	// Consume blocks up to the poll timeout for the next ready task.
	// Returns (nil, nil) when no task arrived within the window.
	Consume(ctx context.Context) (*models.Task, error)

	// PromoteDue moves delayed tasks whose time has come onto the ready
	// queue, returning how many were promoted.
	PromoteDue(ctx context.Context) (int, error)

	// DeadLetter parks a task that exhausted its retries (or is
	// unprocessable) for manual inspection.
	DeadLetter(ctx context.Context, task *models.Task, reason string) error

	// DeadLetters returns up to limit parked tasks, newest first, without
	// removing them.
	DeadLetters(ctx context.Context, limit int64) ([]DeadTask, error)
}

// DeadTask is a dead-lettered task with its failure context.
type DeadTask struct {
	Task     models.Task `json:"task"`
	Reason   string      `json:"reason"`
	FailedAt time.Time   `json:"failedAt"`
}

// NewTask builds a task envelope for the given type and payload.
func NewTask(taskType models.TaskType, payload any, maxRetries int) (*models.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &models.Task{
		ID:         uuid.New().String(),
		Type:       taskType,
		Payload:    body,
		MaxRetries: maxRetries,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}
