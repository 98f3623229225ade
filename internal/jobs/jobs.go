// Package jobs runs asynchronous units of work on an in-memory queue. It
// exists so callers like the importer never wait on budget evaluation; the
// queue dedupes in-flight work by idempotency key and retries transient
// failures with a linear backoff.
package jobs

import (
	"context"
	"time"
)

// Type identifies the kind of work a job carries.
type Type string

const (
	// TypeBudgetEvaluation re-checks the budgets of one (user, category) pair.
	TypeBudgetEvaluation Type = "budget_evaluation"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRetrying  Status = "retrying"
)

// Job is one unit of asynchronous work. Jobs sharing an IdempotencyKey are
// collapsed while one of them is still in flight; a key becomes free again
// once its job reaches a terminal status.
type Job struct {
	ID             string     `json:"id"`
	Type           Type       `json:"type"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	UserID         string     `json:"user_id"`
	CategoryID     string     `json:"category_id,omitempty"`
	Status         Status     `json:"status"`
	Attempts       int        `json:"attempts"`
	LastError      string     `json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Handler processes one job. A returned error marks the attempt failed and
// triggers a retry while attempts remain.
type Handler func(ctx context.Context, job *Job) error

// RetryPolicy bounds how often a failing job is re-run. The delay before
// attempt n is n times Backoff.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}
