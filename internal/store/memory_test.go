package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedAccount(t *testing.T, m *Memory, id, userID string, balance string) {
	t.Helper()
	require.NoError(t, m.CreateAccount(context.Background(), models.Account{
		ID:       id,
		UserID:   userID,
		Name:     "Checking",
		Type:     models.AccountChecking,
		Currency: "EUR",
		Balance:  dec(balance),
		IsActive: true,
	}))
}

func TestGetAccountScopedToUser(t *testing.T) {
	m := NewMemory()
	seedAccount(t, m, "acc-1", "user-1", "0")

	_, err := m.GetAccount(context.Background(), "user-1", "acc-1")
	assert.NoError(t, err)

	_, err = m.GetAccount(context.Background(), "user-2", "acc-1")
	assert.True(t, apperr.IsNotFound(err))
}

func TestBulkInsertAdjustsBalanceAtomically(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedAccount(t, m, "acc-1", "user-1", "100.00")

	txs := []models.Transaction{
		{ID: "tx-1", UserID: "user-1", AccountID: "acc-1", Amount: dec("-3.50")},
		{ID: "tx-2", UserID: "user-1", AccountID: "acc-1", Amount: dec("2500.00")},
	}
	delta := dec("-3.50").Add(dec("2500.00"))
	require.NoError(t, m.BulkInsertTransactions(ctx, "acc-1", txs, delta))

	account, err := m.GetAccount(ctx, "user-1", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "2596.5", account.Balance.String())
}

func TestBulkInsertFailureLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedAccount(t, m, "acc-1", "user-1", "100.00")
	require.NoError(t, m.CreateTransaction(ctx, models.Transaction{
		ID: "tx-1", UserID: "user-1", AccountID: "acc-1", Amount: dec("10.00"),
	}, dec("10.00")))

	// tx-1 is a duplicate, so the whole batch must be rejected.
	err := m.BulkInsertTransactions(ctx, "acc-1", []models.Transaction{
		{ID: "tx-2", UserID: "user-1", AccountID: "acc-1", Amount: dec("5.00")},
		{ID: "tx-1", UserID: "user-1", AccountID: "acc-1", Amount: dec("1.00")},
	}, dec("6.00"))
	require.True(t, apperr.IsConflict(err))

	account, err := m.GetAccount(ctx, "user-1", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "110", account.Balance.String())

	_, err = m.GetTransaction(ctx, "user-1", "tx-2")
	assert.True(t, apperr.IsNotFound(err))
}

// Balance arithmetic must be exact across many concurrent small additions.
func TestConcurrentBalanceAdjustments(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedAccount(t, m, "acc-1", "user-1", "0")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			tx := models.Transaction{
				ID:        fmt.Sprintf("tx-%d", n),
				UserID:    "user-1",
				AccountID: "acc-1",
				Amount:    dec("0.10"),
			}
			assert.NoError(t, m.CreateTransaction(ctx, tx, dec("0.10")))
		}(i)
	}
	wg.Wait()

	account, err := m.GetAccount(ctx, "user-1", "acc-1")
	require.NoError(t, err)
	expected := dec("0.10").Mul(decimal.NewFromInt(workers))
	assert.True(t, expected.Equal(account.Balance),
		"expected %s, got %s", expected, account.Balance)
}

func TestListTransactionsFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedAccount(t, m, "acc-1", "user-1", "0")

	jan := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)

	deleted := models.Transaction{ID: "tx-3", UserID: "user-1", AccountID: "acc-1", CategoryID: "cat-food", Amount: dec("-1.00"), Date: jan}
	deleted.SoftDelete()

	for _, tx := range []models.Transaction{
		{ID: "tx-1", UserID: "user-1", AccountID: "acc-1", CategoryID: "cat-food", Amount: dec("-5.00"), Date: jan},
		{ID: "tx-2", UserID: "user-1", AccountID: "acc-1", CategoryID: "cat-rent", Amount: dec("-800.00"), Date: feb},
		deleted,
	} {
		require.NoError(t, m.CreateTransaction(ctx, tx, decimal.Zero))
	}

	byCategory, err := m.ListTransactions(ctx, "user-1", TransactionFilter{CategoryID: "cat-food"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "tx-1", byCategory[0].ID)

	from := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	byDate, err := m.ListTransactions(ctx, "user-1", TransactionFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "tx-2", byDate[0].ID)

	withDeleted, err := m.ListTransactions(ctx, "user-1", TransactionFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, withDeleted, 3)
}

func TestGetConsumption(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedAccount(t, m, "acc-1", "user-1", "0")

	budget := models.Budget{
		ID:          "bud-1",
		UserID:      "user-1",
		CategoryID:  "cat-food",
		Amount:      dec("100.00"),
		PeriodStart: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	}
	require.NoError(t, m.CreateBudget(ctx, budget))

	inPeriod := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	outOfPeriod := time.Date(2025, time.February, 2, 0, 0, 0, 0, time.UTC)
	for _, tx := range []models.Transaction{
		{ID: "tx-1", UserID: "user-1", AccountID: "acc-1", CategoryID: "cat-food", Amount: dec("-60.00"), Date: inPeriod},
		{ID: "tx-2", UserID: "user-1", AccountID: "acc-1", CategoryID: "cat-food", Amount: dec("-25.00"), Date: inPeriod},
		// Income, other category and out-of-period rows do not count.
		{ID: "tx-3", UserID: "user-1", AccountID: "acc-1", CategoryID: "cat-food", Amount: dec("40.00"), Date: inPeriod},
		{ID: "tx-4", UserID: "user-1", AccountID: "acc-1", CategoryID: "cat-rent", Amount: dec("-500.00"), Date: inPeriod},
		{ID: "tx-5", UserID: "user-1", AccountID: "acc-1", CategoryID: "cat-food", Amount: dec("-10.00"), Date: outOfPeriod},
	} {
		require.NoError(t, m.CreateTransaction(ctx, tx, decimal.Zero))
	}

	consumption, err := m.GetConsumption(ctx, "bud-1")
	require.NoError(t, err)
	assert.True(t, dec("85.00").Equal(consumption.Spent), "spent %s", consumption.Spent)
	assert.True(t, dec("85").Equal(consumption.Percentage), "percentage %s", consumption.Percentage)
}

func TestGetConsumptionReportsOverspend(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedAccount(t, m, "acc-1", "user-1", "0")

	budget := models.Budget{
		ID:          "bud-1",
		UserID:      "user-1",
		CategoryID:  "cat-food",
		Amount:      dec("50.00"),
		PeriodStart: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	}
	require.NoError(t, m.CreateBudget(ctx, budget))
	require.NoError(t, m.CreateTransaction(ctx, models.Transaction{
		ID: "tx-1", UserID: "user-1", AccountID: "acc-1", CategoryID: "cat-food",
		Amount: dec("-75.00"), Date: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
	}, decimal.Zero))

	consumption, err := m.GetConsumption(ctx, "bud-1")
	require.NoError(t, err)
	assert.True(t, dec("75.00").Equal(consumption.Spent))
	assert.True(t, dec("150").Equal(consumption.Percentage), "percentage %s", consumption.Percentage)
}

func TestBudgetEvents(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	triggered := time.Date(2025, time.January, 20, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.AppendBudgetEvent(ctx, models.BudgetEvent{
		ID: "evt-1", BudgetID: "bud-1", UserID: "user-1",
		EventType: models.BudgetEventWarning, TriggeredAt: triggered,
	}))

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)

	has, err := m.HasBudgetEvent(ctx, "bud-1", models.BudgetEventWarning, from, to)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = m.HasBudgetEvent(ctx, "bud-1", models.BudgetEventCritical, from, to)
	require.NoError(t, err)
	assert.False(t, has)

	// Outside the window the event does not count.
	has, err = m.HasBudgetEvent(ctx, "bud-1", models.BudgetEventWarning,
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPreferencesLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetPreferences(ctx, "user-1")
	assert.True(t, apperr.IsNotFound(err))

	prefs := models.DefaultPreferences("pref-1", "user-1")
	require.NoError(t, m.SavePreferences(ctx, prefs))

	loaded, err := m.GetPreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, loaded.BudgetWarningsEnabled)
}

func TestNotificationUpdateInPlace(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	notification := models.Notification{
		ID: "ntf-1", UserID: "user-1", Type: models.NotificationBudgetWarning,
		Title: "Budget warning", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, m.CreateNotification(ctx, notification))

	notification.MarkSent()
	require.NoError(t, m.UpdateNotification(ctx, notification))

	list, err := m.ListNotifications(ctx, "user-1", false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ntf-1", list[0].ID)
	assert.NotNil(t, list[0].SentAt)

	count, err := m.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	notification.MarkRead()
	require.NoError(t, m.UpdateNotification(ctx, notification))
	count, err = m.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCategoriesListing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CreateCategory(ctx, models.Category{ID: "cat-sys", Name: "Food", IsSystem: true}))
	require.NoError(t, m.CreateCategory(ctx, models.Category{ID: "cat-u1", Name: "Hobby", UserID: "user-1"}))
	require.NoError(t, m.CreateCategory(ctx, models.Category{ID: "cat-u2", Name: "Other", UserID: "user-2"}))

	categories, err := m.ListCategories(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestGoalsLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	goal := models.Goal{ID: "goal-1", UserID: "user-1", Title: "Vacation",
		TargetAmount: dec("1000"), Status: models.GoalActive}
	require.NoError(t, m.CreateGoal(ctx, goal))

	require.NoError(t, m.DeleteGoal(ctx, "user-1", "goal-1"))
	_, err := m.GetGoal(ctx, "user-1", "goal-1")
	assert.True(t, apperr.IsNotFound(err))

	assert.True(t, apperr.IsNotFound(m.DeleteGoal(ctx, "user-1", "goal-1")))
}

func TestImportHistoryUpsert(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	history := models.ImportHistory{ID: "imp-1", UserID: "user-1", AccountID: "acc-1",
		FileName: "statement.csv", FileType: "CSV", Status: models.ImportProcessing}
	require.NoError(t, m.SaveImportHistory(ctx, history))

	history.MarkSuccess(5)
	require.NoError(t, m.SaveImportHistory(ctx, history))

	list, err := m.ListImportHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.ImportSuccess, list[0].Status)
	assert.Equal(t, 5, list[0].TransactionsImported)
}
