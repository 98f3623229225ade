// Package budget manages spending budgets and evaluates their thresholds
// against aggregated consumption.
package budget

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

// Dispatcher is the slice of the notification service the evaluator needs.
type Dispatcher interface {
	GetOrCreatePreferences(ctx context.Context, userID string) (models.NotificationPreferences, error)
	Dispatch(ctx context.Context, userID string, kind models.NotificationType, title, body string, data map[string]interface{}) (models.Notification, error)
}

// Service implements budget CRUD and threshold evaluation.
type Service struct {
	budgets    store.Budgets
	categories store.Categories
	dispatcher Dispatcher
	log        logging.Logger
}

// NewService creates a budget service.
func NewService(budgets store.Budgets, categories store.Categories, dispatcher Dispatcher, logger logging.Logger) *Service {
	return &Service{
		budgets:    budgets,
		categories: categories,
		dispatcher: dispatcher,
		log:        logger,
	}
}

// CreateInput carries the fields for creating a budget. Nil thresholds take
// the defaults (warning 0.80, critical 1.00).
type CreateInput struct {
	UserID            string
	CategoryID        string
	Amount            decimal.Decimal
	PeriodStart       time.Time
	PeriodEnd         time.Time
	WarningThreshold  *decimal.Decimal
	CriticalThreshold *decimal.Decimal
}

// Create validates and persists a new active budget. At most one active
// budget may exist per (user, category, overlapping period); violating that
// is a conflict and creates no partial state.
func (s *Service) Create(ctx context.Context, input CreateInput) (models.Budget, error) {
	if !input.Amount.IsPositive() {
		return models.Budget{}, apperr.E(apperr.KindInvalid, "budget amount must be positive")
	}
	if !input.PeriodEnd.After(input.PeriodStart) {
		return models.Budget{}, apperr.E(apperr.KindInvalid, "budget period end must be after period start")
	}

	warning := models.DefaultWarningThreshold
	if input.WarningThreshold != nil {
		warning = *input.WarningThreshold
	}
	critical := models.DefaultCriticalThreshold
	if input.CriticalThreshold != nil {
		critical = *input.CriticalThreshold
	}
	if err := validateThresholds(warning, critical); err != nil {
		return models.Budget{}, err
	}

	if _, err := s.categories.GetCategory(ctx, input.CategoryID); err != nil {
		return models.Budget{}, err
	}

	existing, err := s.budgets.ListActiveBudgets(ctx, input.UserID, input.CategoryID)
	if err != nil {
		return models.Budget{}, fmt.Errorf("checking existing budgets: %w", err)
	}
	for _, other := range existing {
		if other.Overlaps(input.PeriodStart, input.PeriodEnd) {
			return models.Budget{}, apperr.Errorf(apperr.KindConflict,
				"an active budget for category %s already covers an overlapping period", input.CategoryID)
		}
	}

	now := time.Now().UTC()
	budget := models.Budget{
		ID:                uuid.NewString(),
		UserID:            input.UserID,
		CategoryID:        input.CategoryID,
		Amount:            input.Amount,
		PeriodStart:       input.PeriodStart,
		PeriodEnd:         input.PeriodEnd,
		WarningThreshold:  warning,
		CriticalThreshold: critical,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.budgets.CreateBudget(ctx, budget); err != nil {
		return models.Budget{}, err
	}

	s.log.Info("budget created",
		logging.F("budget_id", budget.ID),
		logging.F("category_id", budget.CategoryID),
		logging.F("amount", budget.Amount.String()))
	return budget, nil
}

// Update applies the patch to the user's budget. Threshold and period
// validity are re-checked on the patched result.
func (s *Service) Update(ctx context.Context, userID, budgetID string, patch models.BudgetPatch) (models.Budget, error) {
	budget, err := s.budgets.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return models.Budget{}, err
	}

	patch.Apply(&budget)
	if !budget.Amount.IsPositive() {
		return models.Budget{}, apperr.E(apperr.KindInvalid, "budget amount must be positive")
	}
	if !budget.PeriodEnd.After(budget.PeriodStart) {
		return models.Budget{}, apperr.E(apperr.KindInvalid, "budget period end must be after period start")
	}
	if err := validateThresholds(budget.WarningThreshold, budget.CriticalThreshold); err != nil {
		return models.Budget{}, err
	}

	if err := s.budgets.UpdateBudget(ctx, budget); err != nil {
		return models.Budget{}, err
	}
	return budget, nil
}

// Deactivate soft-disables the budget; evaluation skips inactive budgets.
func (s *Service) Deactivate(ctx context.Context, userID, budgetID string) error {
	budget, err := s.budgets.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return err
	}
	budget.IsActive = false
	budget.UpdatedAt = time.Now().UTC()
	return s.budgets.UpdateBudget(ctx, budget)
}

// Get returns one of the user's budgets.
func (s *Service) Get(ctx context.Context, userID, budgetID string) (models.Budget, error) {
	return s.budgets.GetBudget(ctx, userID, budgetID)
}

// List returns all of the user's budgets.
func (s *Service) List(ctx context.Context, userID string) ([]models.Budget, error) {
	return s.budgets.ListBudgets(ctx, userID)
}

// Consumption returns the aggregated spend for one of the user's budgets.
func (s *Service) Consumption(ctx context.Context, userID, budgetID string) (models.Consumption, error) {
	if _, err := s.budgets.GetBudget(ctx, userID, budgetID); err != nil {
		return models.Consumption{}, err
	}
	return s.budgets.GetConsumption(ctx, budgetID)
}

func validateThresholds(warning, critical decimal.Decimal) error {
	if !warning.IsPositive() || !critical.IsPositive() {
		return apperr.E(apperr.KindInvalid, "thresholds must be positive fractions")
	}
	if critical.LessThan(warning) {
		return apperr.E(apperr.KindInvalid, "critical threshold must be greater than or equal to warning threshold")
	}
	return nil
}
