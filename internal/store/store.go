// Package store defines the persistence ports consumed by the use cases and
// an in-memory implementation of them. The ports describe semantics only
// (uniqueness, atomicity of balance updates, filtering); callers never see
// what backs them.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"budgetflow/backend/internal/models"
)

// TransactionFilter narrows a transaction listing. Zero fields match
// everything; soft-deleted rows are excluded unless IncludeDeleted is set.
type TransactionFilter struct {
	AccountID      string
	CategoryID     string
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
}

// Accounts is the account persistence port.
type Accounts interface {
	CreateAccount(ctx context.Context, account models.Account) error
	// GetAccount returns a not-found error when the account does not exist
	// or belongs to another user.
	GetAccount(ctx context.Context, userID, accountID string) (models.Account, error)
	UpdateAccount(ctx context.Context, account models.Account) error
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
}

// Transactions is the transaction persistence port. Every mutation that
// changes an amount carries the account-balance delta and applies both in one
// atomic unit; the balance is never adjusted with a separate call that could
// race or half-apply.
type Transactions interface {
	CreateTransaction(ctx context.Context, tx models.Transaction, balanceDelta decimal.Decimal) error
	// BulkInsertTransactions persists all rows and adjusts the account
	// balance by the sum in one unit of work. On failure nothing is applied.
	BulkInsertTransactions(ctx context.Context, accountID string, txs []models.Transaction, balanceDelta decimal.Decimal) error
	GetTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx models.Transaction, balanceDelta decimal.Decimal) error
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error)
}

// Budgets is the budget persistence port, including the consumption
// aggregation and the append-only event log.
type Budgets interface {
	CreateBudget(ctx context.Context, budget models.Budget) error
	GetBudget(ctx context.Context, userID, budgetID string) (models.Budget, error)
	UpdateBudget(ctx context.Context, budget models.Budget) error
	ListBudgets(ctx context.Context, userID string) ([]models.Budget, error)
	// ListActiveBudgets returns the active budgets for (user, category).
	ListActiveBudgets(ctx context.Context, userID, categoryID string) ([]models.Budget, error)
	// GetConsumption aggregates spend against the budget as of now. Spent is
	// the absolute sum of non-deleted expense amounts in the budget's
	// category and period; Percentage is on the percent scale and exceeds
	// 100 when the budget is overspent.
	GetConsumption(ctx context.Context, budgetID string) (models.Consumption, error)
	AppendBudgetEvent(ctx context.Context, event models.BudgetEvent) error
	// HasBudgetEvent reports whether an event of the given type was already
	// recorded for the budget with TriggeredAt inside [from, to].
	HasBudgetEvent(ctx context.Context, budgetID string, eventType models.BudgetEventType, from, to time.Time) (bool, error)
	ListBudgetEvents(ctx context.Context, budgetID string) ([]models.BudgetEvent, error)
}

// Notifications is the notification persistence port. Preferences are one
// row per user; GetPreferences returns not-found until the first save.
type Notifications interface {
	CreateNotification(ctx context.Context, notification models.Notification) error
	// UpdateNotification replaces the stored row in place; callers use it to
	// set sent_at after a successful push and to mark rows read.
	UpdateNotification(ctx context.Context, notification models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	GetPreferences(ctx context.Context, userID string) (models.NotificationPreferences, error)
	SavePreferences(ctx context.Context, prefs models.NotificationPreferences) error
}

// Goals is the savings-goal persistence port. Goals are hard-deleted.
type Goals interface {
	CreateGoal(ctx context.Context, goal models.Goal) error
	GetGoal(ctx context.Context, userID, goalID string) (models.Goal, error)
	UpdateGoal(ctx context.Context, goal models.Goal) error
	DeleteGoal(ctx context.Context, userID, goalID string) error
	ListGoals(ctx context.Context, userID string) ([]models.Goal, error)
}

// Categories is the category persistence port. Listing returns system
// categories plus the user's own.
type Categories interface {
	CreateCategory(ctx context.Context, category models.Category) error
	GetCategory(ctx context.Context, categoryID string) (models.Category, error)
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
}

// Insights is the monthly-insight persistence port, keyed by (user, month).
type Insights interface {
	SaveInsight(ctx context.Context, record models.InsightRecord) error
	GetInsight(ctx context.Context, userID, monthYear string) (models.InsightRecord, error)
	ListInsights(ctx context.Context, userID string) ([]models.InsightRecord, error)
}

// Imports is the import-history persistence port.
type Imports interface {
	SaveImportHistory(ctx context.Context, history models.ImportHistory) error
	ListImportHistory(ctx context.Context, userID string) ([]models.ImportHistory, error)
}

// Store aggregates every persistence port. Use cases depend on the narrow
// interfaces; wiring code passes a single implementation of all of them.
type Store interface {
	Accounts
	Transactions
	Budgets
	Notifications
	Goals
	Categories
	Insights
	Imports
}
