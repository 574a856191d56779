package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/models"
	"github.com/supplysync/catalog_api/internal/queue"
)

// Handler processes one task. Returning a fatal error dead-letters the task
// immediately; any other error schedules a retry with backoff.
type Handler func(ctx context.Context, task *models.Task) error

// backoffSchedule holds the retry delays: first retry after 1s, then 5s,
// then 25s.
var backoffSchedule = []time.Duration{1 * time.Second, 5 * time.Second, 25 * time.Second}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks an error as non-retryable: the task is dead-lettered without
// further attempts. Used for malformed payloads and schema-level failures.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

func isFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}

// Dispatcher pulls tasks from the queue and fans them out to a fixed pool
// of workers. Workers share no in-process state; everything they mutate
// lives in PostgreSQL.
type Dispatcher struct {
	queue       queue.Queue
	handlers    map[models.TaskType]Handler
	concurrency int
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(q queue.Queue, handlers map[models.TaskType]Handler, concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		queue:       q,
		handlers:    handlers,
		concurrency: concurrency,
	}
}

// Start runs the worker pool until the context is canceled.
func (d *Dispatcher) Start(ctx context.Context) {
	log.Info().Int("concurrency", d.concurrency).Msg("Starting task dispatcher")

	var wg sync.WaitGroup
	for i := 0; i < d.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.consumeLoop(ctx, id)
		}(i)
	}
	wg.Wait()
	log.Info().Msg("Task dispatcher stopped")
}

func (d *Dispatcher) consumeLoop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := d.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Int("worker", workerID).Msg("Failed to consume task")
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}
		d.process(ctx, workerID, task)
	}
}

// process runs the task's handler, applying the retry/dead-letter policy.
func (d *Dispatcher) process(ctx context.Context, workerID int, task *models.Task) {
	handler, ok := d.handlers[task.Type]
	if !ok {
		d.deadLetter(ctx, task, fmt.Sprintf("no handler for task type %q", task.Type))
		return
	}

	err := d.safeHandle(ctx, handler, task)
	if err == nil {
		return
	}

	if isFatal(err) {
		d.deadLetter(ctx, task, err.Error())
		return
	}

	if task.RetryCount >= task.MaxRetries {
		d.deadLetter(ctx, task, fmt.Sprintf("retries exhausted: %v", err))
		return
	}

	task.RetryCount++
	delay := backoffFor(task.RetryCount)
	log.Warn().
		Err(err).
		Int("worker", workerID).
		Str("task_id", task.ID).
		Str("type", string(task.Type)).
		Int("attempt", task.RetryCount).
		Dur("delay", delay).
		Msg("Task failed, scheduling retry")

	if err := d.queue.PublishDelayed(ctx, task, delay); err != nil {
		log.Error().Err(err).Str("task_id", task.ID).Msg("Failed to schedule retry")
		d.deadLetter(ctx, task, fmt.Sprintf("retry scheduling failed: %v", err))
	}
}

// safeHandle converts a handler panic into a fatal error so one bad task
// cannot take down the worker pool.
func (d *Dispatcher) safeHandle(ctx context.Context, handler Handler, task *models.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("task_id", task.ID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Task handler panicked")
			err = Fatal(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return handler(ctx, task)
}

func (d *Dispatcher) deadLetter(ctx context.Context, task *models.Task, reason string) {
	log.Error().
		Str("task_id", task.ID).
		Str("type", string(task.Type)).
		Str("reason", reason).
		Msg("Dead-lettering task")
	if err := d.queue.DeadLetter(ctx, task, reason); err != nil {
		log.Error().Err(err).Str("task_id", task.ID).Msg("Failed to dead-letter task")
	}
}

// backoffFor returns the delay before the given attempt (1-based). Attempts
// past the schedule reuse the last delay.
func backoffFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(backoffSchedule) {
		return backoffSchedule[len(backoffSchedule)-1]
	}
	return backoffSchedule[attempt-1]
}
