package store

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/models"
)

// Memory is an in-memory Store. A single mutex guards all state, which
// trivially serializes balance adjustments per account; the port semantics
// (bulk insert atomicity, read-modify-write on balance under lock) are the
// same ones a SQL implementation must provide with row locks.
type Memory struct {
	mu sync.RWMutex

	accounts      map[string]models.Account
	transactions  map[string]models.Transaction
	txOrder       []string
	budgets       map[string]models.Budget
	budgetEvents  []models.BudgetEvent
	notifications map[string]models.Notification
	notifOrder    []string
	preferences   map[string]models.NotificationPreferences
	goals         map[string]models.Goal
	categories    map[string]models.Category
	insights      map[string]models.InsightRecord
	imports       []models.ImportHistory
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:      make(map[string]models.Account),
		transactions:  make(map[string]models.Transaction),
		budgets:       make(map[string]models.Budget),
		notifications: make(map[string]models.Notification),
		preferences:   make(map[string]models.NotificationPreferences),
		goals:         make(map[string]models.Goal),
		categories:    make(map[string]models.Category),
		insights:      make(map[string]models.InsightRecord),
	}
}

func (m *Memory) CreateAccount(_ context.Context, account models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.ID]; exists {
		return apperr.Errorf(apperr.KindConflict, "account %s already exists", account.ID)
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *Memory) GetAccount(_ context.Context, userID, accountID string) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAccountLocked(userID, accountID)
}

func (m *Memory) getAccountLocked(userID, accountID string) (models.Account, error) {
	account, exists := m.accounts[accountID]
	if !exists || account.UserID != userID {
		return models.Account{}, apperr.Errorf(apperr.KindNotFound, "account %s not found", accountID)
	}
	return account, nil
}

func (m *Memory) UpdateAccount(_ context.Context, account models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.ID]; !exists {
		return apperr.Errorf(apperr.KindNotFound, "account %s not found", account.ID)
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *Memory) ListAccounts(_ context.Context, userID string) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var accounts []models.Account
	for _, account := range m.accounts {
		if account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

func (m *Memory) CreateTransaction(_ context.Context, tx models.Transaction, balanceDelta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertTransactionsLocked(tx.AccountID, []models.Transaction{tx}, balanceDelta)
}

func (m *Memory) BulkInsertTransactions(_ context.Context, accountID string, txs []models.Transaction, balanceDelta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertTransactionsLocked(accountID, txs, balanceDelta)
}

// insertTransactionsLocked validates everything before touching state so a
// failure leaves neither rows nor balance behind.
func (m *Memory) insertTransactionsLocked(accountID string, txs []models.Transaction, balanceDelta decimal.Decimal) error {
	account, exists := m.accounts[accountID]
	if !exists {
		return apperr.Errorf(apperr.KindNotFound, "account %s not found", accountID)
	}
	for _, tx := range txs {
		if _, dup := m.transactions[tx.ID]; dup {
			return apperr.Errorf(apperr.KindConflict, "transaction %s already exists", tx.ID)
		}
	}

	for _, tx := range txs {
		m.transactions[tx.ID] = tx
		m.txOrder = append(m.txOrder, tx.ID)
	}
	account.Balance = account.Balance.Add(balanceDelta)
	account.UpdatedAt = time.Now().UTC()
	m.accounts[accountID] = account
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, userID, transactionID string) (models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, exists := m.transactions[transactionID]
	if !exists || tx.UserID != userID {
		return models.Transaction{}, apperr.Errorf(apperr.KindNotFound, "transaction %s not found", transactionID)
	}
	return tx, nil
}

func (m *Memory) UpdateTransaction(_ context.Context, tx models.Transaction, balanceDelta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.transactions[tx.ID]; !exists {
		return apperr.Errorf(apperr.KindNotFound, "transaction %s not found", tx.ID)
	}
	account, exists := m.accounts[tx.AccountID]
	if !exists {
		return apperr.Errorf(apperr.KindNotFound, "account %s not found", tx.AccountID)
	}

	m.transactions[tx.ID] = tx
	if !balanceDelta.IsZero() {
		account.Balance = account.Balance.Add(balanceDelta)
		account.UpdatedAt = time.Now().UTC()
		m.accounts[tx.AccountID] = account
	}
	return nil
}

func (m *Memory) ListTransactions(_ context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var txs []models.Transaction
	for _, id := range m.txOrder {
		tx := m.transactions[id]
		if tx.UserID != userID {
			continue
		}
		if !filter.IncludeDeleted && tx.IsDeleted() {
			continue
		}
		if filter.AccountID != "" && tx.AccountID != filter.AccountID {
			continue
		}
		if filter.CategoryID != "" && tx.CategoryID != filter.CategoryID {
			continue
		}
		if filter.From != nil && tx.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && tx.Date.After(*filter.To) {
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (m *Memory) CreateBudget(_ context.Context, budget models.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.budgets[budget.ID]; exists {
		return apperr.Errorf(apperr.KindConflict, "budget %s already exists", budget.ID)
	}
	m.budgets[budget.ID] = budget
	return nil
}

func (m *Memory) GetBudget(_ context.Context, userID, budgetID string) (models.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	budget, exists := m.budgets[budgetID]
	if !exists || budget.UserID != userID {
		return models.Budget{}, apperr.Errorf(apperr.KindNotFound, "budget %s not found", budgetID)
	}
	return budget, nil
}

func (m *Memory) UpdateBudget(_ context.Context, budget models.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.budgets[budget.ID]; !exists {
		return apperr.Errorf(apperr.KindNotFound, "budget %s not found", budget.ID)
	}
	m.budgets[budget.ID] = budget
	return nil
}

func (m *Memory) ListBudgets(_ context.Context, userID string) ([]models.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var budgets []models.Budget
	for _, budget := range m.budgets {
		if budget.UserID == userID {
			budgets = append(budgets, budget)
		}
	}
	return budgets, nil
}

func (m *Memory) ListActiveBudgets(_ context.Context, userID, categoryID string) ([]models.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var budgets []models.Budget
	for _, budget := range m.budgets {
		if budget.UserID == userID && budget.CategoryID == categoryID && budget.IsActive {
			budgets = append(budgets, budget)
		}
	}
	return budgets, nil
}

func (m *Memory) GetConsumption(_ context.Context, budgetID string) (models.Consumption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	budget, exists := m.budgets[budgetID]
	if !exists {
		return models.Consumption{}, apperr.Errorf(apperr.KindNotFound, "budget %s not found", budgetID)
	}

	spent := decimal.Zero
	for _, tx := range m.transactions {
		if tx.UserID != budget.UserID || tx.CategoryID != budget.CategoryID {
			continue
		}
		if tx.IsDeleted() || !tx.IsExpense() {
			continue
		}
		if tx.Date.Before(budget.PeriodStart) || tx.Date.After(budget.PeriodEnd) {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}

	// Overspend is reported as is (e.g. 150 for 1.5x the budget) so critical
	// thresholds above 1.0 stay reachable.
	return models.Consumption{Spent: spent, Percentage: budget.PercentageSpent(spent)}, nil
}

func (m *Memory) AppendBudgetEvent(_ context.Context, event models.BudgetEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgetEvents = append(m.budgetEvents, event)
	return nil
}

func (m *Memory) HasBudgetEvent(_ context.Context, budgetID string, eventType models.BudgetEventType, from, to time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, event := range m.budgetEvents {
		if event.BudgetID != budgetID || event.EventType != eventType {
			continue
		}
		if event.TriggeredAt.Before(from) || event.TriggeredAt.After(to) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *Memory) ListBudgetEvents(_ context.Context, budgetID string) ([]models.BudgetEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []models.BudgetEvent
	for _, event := range m.budgetEvents {
		if event.BudgetID == budgetID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (m *Memory) CreateNotification(_ context.Context, notification models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.notifications[notification.ID]; exists {
		return apperr.Errorf(apperr.KindConflict, "notification %s already exists", notification.ID)
	}
	m.notifications[notification.ID] = notification
	m.notifOrder = append(m.notifOrder, notification.ID)
	return nil
}

func (m *Memory) UpdateNotification(_ context.Context, notification models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.notifications[notification.ID]; !exists {
		return apperr.Errorf(apperr.KindNotFound, "notification %s not found", notification.ID)
	}
	m.notifications[notification.ID] = notification
	return nil
}

func (m *Memory) ListNotifications(_ context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var notifications []models.Notification
	for _, id := range m.notifOrder {
		notification := m.notifications[id]
		if notification.UserID != userID {
			continue
		}
		if unreadOnly && notification.IsRead {
			continue
		}
		notifications = append(notifications, notification)
	}
	return notifications, nil
}

func (m *Memory) CountUnread(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, notification := range m.notifications {
		if notification.UserID == userID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *Memory) GetPreferences(_ context.Context, userID string) (models.NotificationPreferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefs, exists := m.preferences[userID]
	if !exists {
		return models.NotificationPreferences{}, apperr.Errorf(apperr.KindNotFound, "preferences for user %s not found", userID)
	}
	return prefs, nil
}

func (m *Memory) SavePreferences(_ context.Context, prefs models.NotificationPreferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferences[prefs.UserID] = prefs
	return nil
}

func (m *Memory) CreateGoal(_ context.Context, goal models.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.goals[goal.ID]; exists {
		return apperr.Errorf(apperr.KindConflict, "goal %s already exists", goal.ID)
	}
	m.goals[goal.ID] = goal
	return nil
}

func (m *Memory) GetGoal(_ context.Context, userID, goalID string) (models.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	goal, exists := m.goals[goalID]
	if !exists || goal.UserID != userID {
		return models.Goal{}, apperr.Errorf(apperr.KindNotFound, "goal %s not found", goalID)
	}
	return goal, nil
}

func (m *Memory) UpdateGoal(_ context.Context, goal models.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.goals[goal.ID]; !exists {
		return apperr.Errorf(apperr.KindNotFound, "goal %s not found", goal.ID)
	}
	m.goals[goal.ID] = goal
	return nil
}

func (m *Memory) DeleteGoal(_ context.Context, userID, goalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	goal, exists := m.goals[goalID]
	if !exists || goal.UserID != userID {
		return apperr.Errorf(apperr.KindNotFound, "goal %s not found", goalID)
	}
	delete(m.goals, goalID)
	return nil
}

func (m *Memory) ListGoals(_ context.Context, userID string) ([]models.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var goals []models.Goal
	for _, goal := range m.goals {
		if goal.UserID == userID {
			goals = append(goals, goal)
		}
	}
	return goals, nil
}

func (m *Memory) CreateCategory(_ context.Context, category models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.categories[category.ID]; exists {
		return apperr.Errorf(apperr.KindConflict, "category %s already exists", category.ID)
	}
	m.categories[category.ID] = category
	return nil
}

func (m *Memory) GetCategory(_ context.Context, categoryID string) (models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	category, exists := m.categories[categoryID]
	if !exists {
		return models.Category{}, apperr.Errorf(apperr.KindNotFound, "category %s not found", categoryID)
	}
	return category, nil
}

func (m *Memory) ListCategories(_ context.Context, userID string) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var categories []models.Category
	for _, category := range m.categories {
		if category.IsSystem || category.UserID == userID {
			categories = append(categories, category)
		}
	}
	return categories, nil
}

func insightKey(userID, monthYear string) string {
	return userID + "/" + monthYear
}

func (m *Memory) SaveInsight(_ context.Context, record models.InsightRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights[insightKey(record.UserID, record.MonthYear)] = record
	return nil
}

func (m *Memory) GetInsight(_ context.Context, userID, monthYear string) (models.InsightRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.insights[insightKey(userID, monthYear)]
	if !exists {
		return models.InsightRecord{}, apperr.Errorf(apperr.KindNotFound, "insight for %s not found", monthYear)
	}
	return record, nil
}

func (m *Memory) ListInsights(_ context.Context, userID string) ([]models.InsightRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []models.InsightRecord
	for _, record := range m.insights {
		if record.UserID == userID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (m *Memory) SaveImportHistory(_ context.Context, history models.ImportHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.imports {
		if existing.ID == history.ID {
			m.imports[i] = history
			return nil
		}
	}
	m.imports = append(m.imports, history)
	return nil
}

func (m *Memory) ListImportHistory(_ context.Context, userID string) ([]models.ImportHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var histories []models.ImportHistory
	for _, history := range m.imports {
		if history.UserID == userID {
			histories = append(histories, history)
		}
	}
	return histories, nil
}

var _ Store = (*Memory)(nil)
