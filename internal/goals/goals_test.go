package goals

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

func newService(t *testing.T) (*Service, *notify.Service) {
	t.Helper()
	mem := store.NewMemory()
	notifier := notify.NewService(mem, nil, logging.NewMockLogger())
	return NewService(mem, notifier, logging.NewMockLogger()), notifier
}

func TestCreateGoal(t *testing.T) {
	service, _ := newService(t)

	goal, err := service.Create(context.Background(), CreateInput{
		UserID:       "user-1",
		Title:        "Vacation",
		TargetAmount: dec("1000.00"),
		TargetDate:   time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, models.GoalActive, goal.Status)
	assert.True(t, goal.CurrentAmount.IsZero())

	_, err = service.Create(context.Background(), CreateInput{
		UserID: "user-1", Title: "", TargetAmount: dec("10"),
	})
	assert.True(t, apperr.IsInvalid(err))

	_, err = service.Create(context.Background(), CreateInput{
		UserID: "user-1", Title: "x", TargetAmount: dec("0"),
	})
	assert.True(t, apperr.IsInvalid(err))
}

func TestAddProgressCompletesAndNotifies(t *testing.T) {
	ctx := context.Background()
	service, notifier := newService(t)

	goal, err := service.Create(ctx, CreateInput{
		UserID: "user-1", Title: "Vacation", TargetAmount: dec("100.00"),
	})
	require.NoError(t, err)

	goal, err = service.AddProgress(ctx, "user-1", goal.ID, dec("60.00"))
	require.NoError(t, err)
	assert.Equal(t, models.GoalActive, goal.Status)
	assert.True(t, dec("60").Equal(goal.ProgressPercentage()))

	goal, err = service.AddProgress(ctx, "user-1", goal.ID, dec("40.00"))
	require.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, goal.Status)

	notifications, err := notifier.List(ctx, "user-1", false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationGoalMilestone, notifications[0].Type)

	// Further progress on a completed goal does not notify again.
	_, err = service.AddProgress(ctx, "user-1", goal.ID, dec("10.00"))
	require.NoError(t, err)
	notifications, err = notifier.List(ctx, "user-1", false)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestAddProgressValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	goal, err := service.Create(ctx, CreateInput{
		UserID: "user-1", Title: "Vacation", TargetAmount: dec("100.00"),
	})
	require.NoError(t, err)

	_, err = service.AddProgress(ctx, "user-1", goal.ID, dec("-5"))
	assert.True(t, apperr.IsInvalid(err))

	_, err = service.AddProgress(ctx, "user-1", "goal-missing", dec("5"))
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	goal, err := service.Create(ctx, CreateInput{
		UserID: "user-1", Title: "Vacation", TargetAmount: dec("100.00"),
	})
	require.NoError(t, err)

	title := "Sabbatical"
	updated, err := service.Update(ctx, "user-1", goal.ID, models.GoalPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Sabbatical", updated.Title)

	require.NoError(t, service.Delete(ctx, "user-1", goal.ID))
	_, err = service.Get(ctx, "user-1", goal.ID)
	assert.True(t, apperr.IsNotFound(err))
}
