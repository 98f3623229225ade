package budget

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
	"budgetflow/backend/internal/notify"
	"budgetflow/backend/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	store   *store.Memory
	notify  *notify.Service
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	require.NoError(t, mem.CreateCategory(context.Background(), models.Category{
		ID: "cat-food", Name: "Groceries", IsSystem: true,
	}))

	notifier := notify.NewService(mem, nil, logging.NewMockLogger())
	return &fixture{
		store:   mem,
		notify:  notifier,
		service: NewService(mem, mem, notifier, logging.NewMockLogger()),
	}
}

func janPeriod() (time.Time, time.Time) {
	return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 31, 23, 59, 59, 0, time.UTC)
}

func (f *fixture) createBudget(t *testing.T, amount string) models.Budget {
	t.Helper()
	start, end := janPeriod()
	budget, err := f.service.Create(context.Background(), CreateInput{
		UserID:      "user-1",
		CategoryID:  "cat-food",
		Amount:      dec(amount),
		PeriodStart: start,
		PeriodEnd:   end,
	})
	require.NoError(t, err)
	return budget
}

func (f *fixture) spend(t *testing.T, id, amount string, date time.Time) {
	t.Helper()
	require.NoError(t, f.store.CreateAccount(context.Background(), models.Account{
		ID: "acc-" + id, UserID: "user-1", Currency: "EUR",
	}))
	require.NoError(t, f.store.CreateTransaction(context.Background(), models.Transaction{
		ID: "tx-" + id, UserID: "user-1", AccountID: "acc-" + id,
		CategoryID: "cat-food", Amount: dec(amount), Date: date,
	}, decimal.Zero))
}

func TestCreateBudgetDefaults(t *testing.T) {
	f := newFixture(t)
	budget := f.createBudget(t, "100.00")

	assert.True(t, models.DefaultWarningThreshold.Equal(budget.WarningThreshold))
	assert.True(t, models.DefaultCriticalThreshold.Equal(budget.CriticalThreshold))
	assert.True(t, budget.IsActive)
}

func TestCreateBudgetValidation(t *testing.T) {
	f := newFixture(t)
	start, end := janPeriod()

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), CreateInput{
			UserID: "user-1", CategoryID: "cat-food", Amount: dec("0"),
			PeriodStart: start, PeriodEnd: end,
		})
		assert.True(t, apperr.IsInvalid(err))
	})

	t.Run("inverted period", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), CreateInput{
			UserID: "user-1", CategoryID: "cat-food", Amount: dec("100"),
			PeriodStart: end, PeriodEnd: start,
		})
		assert.True(t, apperr.IsInvalid(err))
	})

	t.Run("critical below warning", func(t *testing.T) {
		warning := dec("0.90")
		critical := dec("0.50")
		_, err := f.service.Create(context.Background(), CreateInput{
			UserID: "user-1", CategoryID: "cat-food", Amount: dec("100"),
			PeriodStart: start, PeriodEnd: end,
			WarningThreshold: &warning, CriticalThreshold: &critical,
		})
		assert.True(t, apperr.IsInvalid(err))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), CreateInput{
			UserID: "user-1", CategoryID: "cat-nope", Amount: dec("100"),
			PeriodStart: start, PeriodEnd: end,
		})
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestCreateBudgetOverlapConflict(t *testing.T) {
	f := newFixture(t)
	f.createBudget(t, "100.00")

	// A second budget overlapping mid-January must be rejected.
	_, err := f.service.Create(context.Background(), CreateInput{
		UserID:      "user-1",
		CategoryID:  "cat-food",
		Amount:      dec("200.00"),
		PeriodStart: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC),
	})
	assert.True(t, apperr.IsConflict(err))

	// A disjoint period is fine.
	_, err = f.service.Create(context.Background(), CreateInput{
		UserID:      "user-1",
		CategoryID:  "cat-food",
		Amount:      dec("200.00"),
		PeriodStart: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
}

func TestUpdateBudgetRejectsInvalidThresholds(t *testing.T) {
	f := newFixture(t)
	budget := f.createBudget(t, "100.00")

	bad := dec("0.10")
	_, err := f.service.Update(context.Background(), "user-1", budget.ID, models.BudgetPatch{
		CriticalThreshold: &bad,
	})
	assert.True(t, apperr.IsInvalid(err))

	newAmount := dec("150.00")
	updated, err := f.service.Update(context.Background(), "user-1", budget.ID, models.BudgetPatch{
		Amount: &newAmount,
	})
	require.NoError(t, err)
	assert.True(t, newAmount.Equal(updated.Amount))
}

func TestEvaluateClassification(t *testing.T) {
	jan15 := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		spent     string
		eventType models.BudgetEventType
		crossed   bool
	}{
		{"79 percent is quiet", "-79.00", "", false},
		{"85 percent warns", "-85.00", models.BudgetEventWarning, true},
		{"100 percent is critical", "-100.00", models.BudgetEventCritical, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			budget := f.createBudget(t, "100.00")
			f.spend(t, "1", tc.spent, jan15)

			events, err := f.service.EvaluateCategory(ctx, "user-1", "cat-food")
			require.NoError(t, err)

			if !tc.crossed {
				assert.Empty(t, events)
				// No event and no notification below the warning threshold.
				stored, err := f.store.ListBudgetEvents(ctx, budget.ID)
				require.NoError(t, err)
				assert.Empty(t, stored)
				notifications, err := f.notify.List(ctx, "user-1", false)
				require.NoError(t, err)
				assert.Empty(t, notifications)
				return
			}

			require.Len(t, events, 1)
			assert.Equal(t, tc.eventType, events[0].EventType)
			assert.True(t, dec(tc.spent).Abs().Equal(events[0].CurrentSpent))
			assert.True(t, dec("100.00").Equal(events[0].BudgetAmount))
		})
	}
}

func TestEvaluateOverspendReachesHighCritical(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// A critical threshold above 1.0 means "alert at 150% of budget".
	start, end := janPeriod()
	warning := dec("0.80")
	critical := dec("1.50")
	budget, err := f.service.Create(ctx, CreateInput{
		UserID:            "user-1",
		CategoryID:        "cat-food",
		Amount:            dec("100.00"),
		PeriodStart:       start,
		PeriodEnd:         end,
		WarningThreshold:  &warning,
		CriticalThreshold: &critical,
	})
	require.NoError(t, err)

	f.spend(t, "1", "-160.00", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))

	events, err := f.service.EvaluateCategory(ctx, "user-1", "cat-food")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.BudgetEventCritical, events[0].EventType)
	assert.Equal(t, budget.ID, events[0].BudgetID)
	assert.True(t, dec("160").Equal(events[0].ThresholdPercentage),
		"percentage %s", events[0].ThresholdPercentage)
}

func TestEvaluateDedupWithinPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createBudget(t, "100.00")
	f.spend(t, "1", "-85.00", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))

	first, err := f.service.EvaluateCategory(ctx, "user-1", "cat-food")
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Same threshold, same period: no second event.
	second, err := f.service.EvaluateCategory(ctx, "user-1", "cat-food")
	require.NoError(t, err)
	assert.Empty(t, second)

	// Crossing the next threshold still produces its own event.
	f.spend(t, "2", "-20.00", time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC))
	third, err := f.service.EvaluateCategory(ctx, "user-1", "cat-food")
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, models.BudgetEventCritical, third[0].EventType)
}

func TestEvaluateRecordsEventWhenNotificationsDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	budget := f.createBudget(t, "100.00")
	f.spend(t, "1", "-85.00", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))

	off := false
	_, err := f.notify.UpdatePreferences(ctx, "user-1", models.PreferencesPatch{
		BudgetWarningsEnabled: &off,
	})
	require.NoError(t, err)

	events, err := f.service.EvaluateCategory(ctx, "user-1", "cat-food")
	require.NoError(t, err)
	require.Len(t, events, 1)

	// The audit record exists; the user-facing notification does not.
	stored, err := f.store.ListBudgetEvents(ctx, budget.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	notifications, err := f.notify.List(ctx, "user-1", false)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestEvaluateNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createBudget(t, "100.00")
	f.spend(t, "1", "-120.00", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))

	events, err := f.service.EvaluateCategory(ctx, "user-1", "cat-food")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.BudgetEventCritical, events[0].EventType)

	notifications, err := f.notify.List(ctx, "user-1", false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationBudgetExceeded, notifications[0].Type)
}

func TestEvaluateSkipsInactiveBudgets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	budget := f.createBudget(t, "100.00")
	f.spend(t, "1", "-120.00", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))

	require.NoError(t, f.service.Deactivate(ctx, "user-1", budget.ID))

	events, err := f.service.EvaluateCategory(ctx, "user-1", "cat-food")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestConsumptionPassthrough(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	budget := f.createBudget(t, "100.00")
	f.spend(t, "1", "-40.00", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))

	consumption, err := f.service.Consumption(ctx, "user-1", budget.ID)
	require.NoError(t, err)
	assert.True(t, dec("40.00").Equal(consumption.Spent))
	assert.True(t, dec("40").Equal(consumption.Percentage))

	_, err = f.service.Consumption(ctx, "user-2", budget.ID)
	assert.True(t, apperr.IsNotFound(err))
}
