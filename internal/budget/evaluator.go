package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
)

var hundred = decimal.NewFromInt(100)

// EvaluateCategory checks every active budget for (user, category) against
// its consumption and returns the events created.
//
// The storage layer reports percentage on the percent scale (100 means the
// budget is fully spent, overspend goes above 100); thresholds are fractions,
// so the percentage is divided by 100 before comparison. Critical is
// classified before warning. A consumption lookup failure skips that budget
// only. At most one event per (budget, threshold type) is created within the
// budget's period; re-evaluating an already-crossed budget is a no-op.
func (s *Service) EvaluateCategory(ctx context.Context, userID, categoryID string) ([]models.BudgetEvent, error) {
	budgets, err := s.budgets.ListActiveBudgets(ctx, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing active budgets: %w", err)
	}
	if len(budgets) == 0 {
		return []models.BudgetEvent{}, nil
	}

	prefs, err := s.dispatcher.GetOrCreatePreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading notification preferences: %w", err)
	}

	events := []models.BudgetEvent{}
	for _, budget := range budgets {
		consumption, err := s.budgets.GetConsumption(ctx, budget.ID)
		if err != nil {
			s.log.WithError(err).Warn("skipping budget, consumption lookup failed",
				logging.F("budget_id", budget.ID))
			continue
		}

		ratio := consumption.Percentage.Div(hundred)
		var eventType models.BudgetEventType
		switch {
		case ratio.GreaterThanOrEqual(budget.CriticalThreshold):
			eventType = models.BudgetEventCritical
		case ratio.GreaterThanOrEqual(budget.WarningThreshold):
			eventType = models.BudgetEventWarning
		default:
			continue
		}

		already, err := s.budgets.HasBudgetEvent(ctx, budget.ID, eventType, budget.PeriodStart, budget.PeriodEnd)
		if err != nil {
			s.log.WithError(err).Warn("skipping budget, event lookup failed",
				logging.F("budget_id", budget.ID))
			continue
		}
		if already {
			continue
		}

		event := models.BudgetEvent{
			ID:                  uuid.NewString(),
			BudgetID:            budget.ID,
			UserID:              userID,
			EventType:           eventType,
			ThresholdPercentage: consumption.Percentage,
			CurrentSpent:        consumption.Spent,
			BudgetAmount:        budget.Amount,
			TriggeredAt:         nowInPeriod(budget),
		}
		if err := s.budgets.AppendBudgetEvent(ctx, event); err != nil {
			s.log.WithError(err).Error("could not record budget event",
				logging.F("budget_id", budget.ID))
			continue
		}
		events = append(events, event)

		s.notifyCrossing(ctx, prefs, budget, event)
	}

	return events, nil
}

// notifyCrossing sends the notification matching the event type when the
// user's preferences allow it. The event itself is recorded regardless, so
// the audit trail survives disabled notifications.
func (s *Service) notifyCrossing(ctx context.Context, prefs models.NotificationPreferences, budget models.Budget, event models.BudgetEvent) {
	var (
		kind  models.NotificationType
		title string
	)
	switch event.EventType {
	case models.BudgetEventCritical:
		kind = models.NotificationBudgetExceeded
		title = "Budget exceeded"
	default:
		kind = models.NotificationBudgetWarning
		title = "Budget warning"
	}

	if !prefs.EnabledFor(kind) {
		s.log.Debug("notification suppressed by preferences",
			logging.F("budget_id", budget.ID),
			logging.F("type", string(kind)))
		return
	}

	body := fmt.Sprintf("You have spent %s of your %s budget (%s%%).",
		event.CurrentSpent.StringFixed(2), budget.Amount.StringFixed(2),
		event.ThresholdPercentage.StringFixed(0))
	data := map[string]interface{}{
		"budget_id":   budget.ID,
		"category_id": budget.CategoryID,
		"event_type":  string(event.EventType),
		"percentage":  event.ThresholdPercentage.String(),
	}

	if _, err := s.dispatcher.Dispatch(ctx, budget.UserID, kind, title, body, data); err != nil {
		// A missed notification never fails the evaluation.
		s.log.WithError(err).Warn("could not dispatch budget notification",
			logging.F("budget_id", budget.ID))
	}
}

// nowInPeriod stamps the event inside the budget's period so the per-period
// dedup window always covers it, even when evaluation runs after period end
// (late imports backfill old statements).
func nowInPeriod(budget models.Budget) time.Time {
	now := time.Now().UTC()
	if now.Before(budget.PeriodStart) {
		return budget.PeriodStart
	}
	if now.After(budget.PeriodEnd) {
		return budget.PeriodEnd
	}
	return now
}
