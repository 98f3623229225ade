package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/logging"
)

// Queue is an in-memory job queue backed by a channel and a fixed worker
// pool. It is safe for concurrent use. Suitable for a single-instance
// deployment; a multi-instance setup would swap it for a broker behind the
// same Publish surface.
type Queue struct {
	jobChan   chan *Job
	closeChan chan struct{}
	wg        sync.WaitGroup
	policy    RetryPolicy
	workers   int
	log       logging.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
}

// NewQueue creates a queue. bufferSize determines how many jobs can wait
// before Publish blocks; workers is the number of concurrent handlers.
func NewQueue(bufferSize, workers int, policy RetryPolicy, logger logging.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Queue{
		jobChan:   make(chan *Job, bufferSize),
		closeChan: make(chan struct{}),
		policy:    policy,
		workers:   workers,
		inflight:  make(map[string]struct{}),
		log:       logger,
	}
}

// Publish enqueues a job. A job whose IdempotencyKey matches one already in
// flight is dropped silently; the pending run covers it.
func (q *Queue) Publish(ctx context.Context, job *Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return apperr.E(apperr.KindInvalid, "job queue is closed")
	}
	if job.IdempotencyKey != "" {
		if _, busy := q.inflight[job.IdempotencyKey]; busy {
			q.mu.Unlock()
			q.log.Debug("job collapsed into in-flight duplicate",
				logging.F("idempotency_key", job.IdempotencyKey))
			return nil
		}
		q.inflight[job.IdempotencyKey] = struct{}{}
	}
	q.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = StatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	if err := q.enqueue(ctx, job); err != nil {
		q.release(job)
		return err
	}
	return nil
}

// Start launches the worker pool. Workers run until the context is cancelled
// or Stop is called.
func (q *Queue) Start(ctx context.Context, handler Handler) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
}

// Stop fences publishers, drains jobs already accepted into the buffer, then
// waits for the workers, bounded by ctx. Work published before Stop is
// processed, not dropped; retries whose backoff fires after the fence are the
// only casualties.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) enqueue(ctx context.Context, job *Job) error {
	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return apperr.E(apperr.KindInvalid, "job queue is closed")
	}
}

func (q *Queue) worker(ctx context.Context, handler Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.process(ctx, job, handler)
		case <-q.closeChan:
			q.drain(ctx, handler)
			return
		}
	}
}

// drain empties the buffer after the queue is fenced. Publishers cannot add
// jobs past this point, so an empty channel means done.
func (q *Queue) drain(ctx context.Context, handler Handler) {
	for {
		select {
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.process(ctx, job, handler)
		default:
			return
		}
	}
}

func (q *Queue) process(ctx context.Context, job *Job, handler Handler) {
	job.Status = StatusRunning
	job.Attempts++
	now := time.Now().UTC()
	job.StartedAt = &now

	err := handler(ctx, job)
	if err == nil {
		completed := time.Now().UTC()
		job.CompletedAt = &completed
		job.Status = StatusCompleted
		job.LastError = ""
		q.release(job)
		return
	}

	job.LastError = err.Error()
	if job.Attempts < q.policy.MaxAttempts {
		job.Status = StatusRetrying
		delay := time.Duration(job.Attempts) * q.policy.Backoff
		q.log.WithError(err).Warn("job failed, retrying",
			logging.F("job_id", job.ID),
			logging.F("attempt", job.Attempts),
			logging.F("backoff", delay.String()))
		// The idempotency key stays held across the backoff so duplicates
		// keep collapsing into this run.
		time.AfterFunc(delay, func() {
			job.Status = StatusPending
			job.StartedAt = nil
			if err := q.enqueue(context.Background(), job); err != nil {
				q.release(job)
				q.log.WithError(err).Warn("dropping retry, queue unavailable",
					logging.F("job_id", job.ID))
			}
		})
		return
	}

	completed := time.Now().UTC()
	job.CompletedAt = &completed
	job.Status = StatusFailed
	q.release(job)
	q.log.WithError(err).Error("job failed permanently",
		logging.F("job_id", job.ID),
		logging.F("type", string(job.Type)),
		logging.F("attempts", job.Attempts))
}

func (q *Queue) release(job *Job) {
	if job.IdempotencyKey == "" {
		return
	}
	q.mu.Lock()
	delete(q.inflight, job.IdempotencyKey)
	q.mu.Unlock()
}
