package models

// AccountType classifies an account.
type AccountType string

const (
	AccountChecking   AccountType = "CHECKING"
	AccountSavings    AccountType = "SAVINGS"
	AccountCreditCard AccountType = "CREDIT_CARD"
	AccountBusiness   AccountType = "BUSINESS"
	AccountCash       AccountType = "CASH"
	AccountInvestment AccountType = "INVESTMENT"
	AccountLoan       AccountType = "LOAN"
	AccountOther      AccountType = "OTHER"
)

// OwnerScope distinguishes personal from professional accounts; insights are
// segmented by it.
type OwnerScope string

const (
	ScopePersonal     OwnerScope = "PERSONAL"
	ScopeProfessional OwnerScope = "PROFESSIONAL"
)

// TransactionStatus is the lifecycle status of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// NotificationType tags user-facing notifications.
type NotificationType string

const (
	NotificationBudgetWarning  NotificationType = "BUDGET_WARNING"
	NotificationBudgetExceeded NotificationType = "BUDGET_EXCEEDED"
	NotificationAnomaly        NotificationType = "ANOMALY_DETECTED"
	NotificationGoalMilestone  NotificationType = "GOAL_MILESTONE"
	NotificationInsightReady   NotificationType = "INSIGHT_READY"
)

// BudgetEventType identifies which threshold a budget crossed.
type BudgetEventType string

const (
	BudgetEventWarning  BudgetEventType = "WARNING"
	BudgetEventCritical BudgetEventType = "CRITICAL"
)

// GoalStatus is the lifecycle status of a savings goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "ACTIVE"
	GoalPaused    GoalStatus = "PAUSED"
	GoalCompleted GoalStatus = "COMPLETED"
	GoalCancelled GoalStatus = "CANCELLED"
)

// ImportStatus tracks the outcome of a statement import.
type ImportStatus string

const (
	ImportProcessing ImportStatus = "PROCESSING"
	ImportSuccess    ImportStatus = "SUCCESS"
	ImportFailed     ImportStatus = "FAILED"
)
