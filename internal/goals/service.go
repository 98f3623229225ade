// Package goals manages savings goals and their progress.
package goals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
	"budgetflow/backend/internal/store"
)

// Dispatcher is the slice of the notification service used for milestone
// notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, kind models.NotificationType, title, body string, data map[string]interface{}) (models.Notification, error)
}

// Service implements the savings-goal lifecycle.
type Service struct {
	goals      store.Goals
	dispatcher Dispatcher
	log        logging.Logger
}

// NewService creates a goals service. The dispatcher may be nil.
func NewService(goals store.Goals, dispatcher Dispatcher, logger logging.Logger) *Service {
	return &Service{
		goals:      goals,
		dispatcher: dispatcher,
		log:        logger,
	}
}

// CreateInput carries the fields for creating a goal.
type CreateInput struct {
	UserID          string
	Title           string
	Description     string
	TargetAmount    decimal.Decimal
	TargetDate      time.Time
	Priority        int
	LinkedAccountID string
}

// Create validates and persists a new active goal.
func (s *Service) Create(ctx context.Context, input CreateInput) (models.Goal, error) {
	if input.Title == "" {
		return models.Goal{}, apperr.E(apperr.KindInvalid, "goal title is required")
	}
	if !input.TargetAmount.IsPositive() {
		return models.Goal{}, apperr.E(apperr.KindInvalid, "goal target amount must be positive")
	}

	now := time.Now().UTC()
	goal := models.Goal{
		ID:              uuid.NewString(),
		UserID:          input.UserID,
		Title:           input.Title,
		Description:     input.Description,
		TargetAmount:    input.TargetAmount,
		CurrentAmount:   decimal.Zero,
		TargetDate:      input.TargetDate,
		Priority:        input.Priority,
		LinkedAccountID: input.LinkedAccountID,
		Status:          models.GoalActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.goals.CreateGoal(ctx, goal); err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

// Update applies the patch to one of the user's goals.
func (s *Service) Update(ctx context.Context, userID, goalID string, patch models.GoalPatch) (models.Goal, error) {
	goal, err := s.goals.GetGoal(ctx, userID, goalID)
	if err != nil {
		return models.Goal{}, err
	}

	patch.Apply(&goal)
	if !goal.TargetAmount.IsPositive() {
		return models.Goal{}, apperr.E(apperr.KindInvalid, "goal target amount must be positive")
	}
	if err := s.goals.UpdateGoal(ctx, goal); err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

// Delete removes the goal permanently.
func (s *Service) Delete(ctx context.Context, userID, goalID string) error {
	return s.goals.DeleteGoal(ctx, userID, goalID)
}

// Get returns one of the user's goals.
func (s *Service) Get(ctx context.Context, userID, goalID string) (models.Goal, error) {
	return s.goals.GetGoal(ctx, userID, goalID)
}

// List returns all of the user's goals.
func (s *Service) List(ctx context.Context, userID string) ([]models.Goal, error) {
	return s.goals.ListGoals(ctx, userID)
}

// AddProgress increments the goal's saved amount. Reaching the target
// auto-completes the goal and emits a milestone notification.
func (s *Service) AddProgress(ctx context.Context, userID, goalID string, amount decimal.Decimal) (models.Goal, error) {
	if !amount.IsPositive() {
		return models.Goal{}, apperr.E(apperr.KindInvalid, "progress amount must be positive")
	}

	goal, err := s.goals.GetGoal(ctx, userID, goalID)
	if err != nil {
		return models.Goal{}, err
	}

	wasCompleted := goal.Status == models.GoalCompleted
	goal.AddProgress(amount)
	if err := s.goals.UpdateGoal(ctx, goal); err != nil {
		return models.Goal{}, err
	}

	if !wasCompleted && goal.Status == models.GoalCompleted && s.dispatcher != nil {
		body := fmt.Sprintf("You reached your goal '%s' (%s saved).",
			goal.Title, goal.CurrentAmount.StringFixed(2))
		data := map[string]interface{}{"goal_id": goal.ID}
		if _, err := s.dispatcher.Dispatch(ctx, userID, models.NotificationGoalMilestone,
			"Goal reached", body, data); err != nil {
			s.log.WithError(err).Warn("could not dispatch goal milestone notification",
				logging.F("goal_id", goal.ID))
		}
	}
	return goal, nil
}
