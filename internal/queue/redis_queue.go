package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/supplysync/catalog_api/internal/models"
)

const (
	readyKey   = "catalog:tasks:ready"
	delayedKey = "catalog:tasks:delayed"
	deadKey    = "catalog:tasks:dead"

	// pollTimeout bounds each blocking pop so consumers can observe
	// context cancellation.
	pollTimeout = 2 * time.Second
)

// RedisQueue implements Queue on Redis primitives: a list for ready tasks,
// a sorted set (scored by due time) for delayed tasks and a list for the
// dead-letter queue.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue creates a RedisQueue on an established client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

// Publish implements Queue.
func (q *RedisQueue) Publish(ctx context.Context, task *models.Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.ID, err)
	}
	return q.client.LPush(ctx, readyKey, body).Err()
}

// PublishDelayed implements Queue.
func (q *RedisQueue) PublishDelayed(ctx context.Context, task *models.Task, delay time.Duration) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.ID, err)
	}
	due := float64(time.Now().Add(delay).UnixMilli())
	return q.client.ZAdd(ctx, delayedKey, redis.Z{Score: due, Member: body}).Err()
}

// Consume implements Queue. BRPOP keeps FIFO order against LPUSH.
func (q *RedisQueue) Consume(ctx context.Context) (*models.Task, error) {
	res, err := q.client.BRPop(ctx, pollTimeout, readyKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// res is [key, value]
	var task models.Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("malformed task envelope: %w", err)
	}
	return &task, nil
}

// PromoteDue implements Queue. Promotion is two steps (range then remove);
// a crash in between re-promotes a task, which consumers tolerate because
// task effects are idempotent.
func (q *RedisQueue) PromoteDue(ctx context.Context) (int, error) {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	members, err := q.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil || len(members) == 0 {
		return 0, err
	}
	pipe := q.client.TxPipeline()
	for _, m := range members {
		pipe.LPush(ctx, readyKey, m)
		pipe.ZRem(ctx, delayedKey, m)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(members), nil
}

// DeadLetter implements Queue.
func (q *RedisQueue) DeadLetter(ctx context.Context, task *models.Task, reason string) error {
	entry := DeadTask{
		Task:     *task,
		Reason:   reason,
		FailedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal dead task %s: %w", task.ID, err)
	}
	return q.client.LPush(ctx, deadKey, body).Err()
}

// DeadLetters implements Queue.
func (q *RedisQueue) DeadLetters(ctx context.Context, limit int64) ([]DeadTask, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := q.client.LRange(ctx, deadKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DeadTask, 0, len(raw))
	for _, r := range raw {
		var d DeadTask
		if err := json.Unmarshal([]byte(r), &d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
