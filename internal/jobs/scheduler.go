package jobs

import (
	"context"
	"fmt"

	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
)

// Evaluator is the budget-evaluation entry point the queue drives.
type Evaluator interface {
	EvaluateCategory(ctx context.Context, userID, categoryID string) ([]models.BudgetEvent, error)
}

// EvaluationScheduler publishes budget-evaluation jobs. It satisfies the
// fire-and-forget scheduler interfaces of the importer and ledger services.
type EvaluationScheduler struct {
	queue *Queue
	log   logging.Logger
}

// NewEvaluationScheduler creates a scheduler publishing to queue.
func NewEvaluationScheduler(queue *Queue, logger logging.Logger) *EvaluationScheduler {
	return &EvaluationScheduler{queue: queue, log: logger}
}

// ScheduleEvaluation enqueues an evaluation for (user, category). Evaluating
// the same pair twice is harmless, so a publish failure is only logged.
func (s *EvaluationScheduler) ScheduleEvaluation(userID, categoryID string) {
	job := &Job{
		Type:           TypeBudgetEvaluation,
		IdempotencyKey: fmt.Sprintf("%s:%s:%s", TypeBudgetEvaluation, userID, categoryID),
		UserID:         userID,
		CategoryID:     categoryID,
	}
	if err := s.queue.Publish(context.Background(), job); err != nil {
		s.log.WithError(err).Warn("could not schedule budget evaluation",
			logging.F("user_id", userID),
			logging.F("category_id", categoryID))
	}
}

// EvaluationHandler adapts an Evaluator into the queue's Handler type.
func EvaluationHandler(evaluator Evaluator) Handler {
	return func(ctx context.Context, job *Job) error {
		if job.Type != TypeBudgetEvaluation {
			return fmt.Errorf("unexpected job type %q", job.Type)
		}
		_, err := evaluator.EvaluateCategory(ctx, job.UserID, job.CategoryID)
		return err
	}
}
