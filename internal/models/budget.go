package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending for (user, category) over a period. Thresholds are
// fractions of the budget amount: warning defaults to 0.80, critical to 1.00.
// At most one active budget may exist per (user, category, overlapping
// period); the budget service enforces that with an existence check at
// creation time.
type Budget struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	CategoryID        string          `json:"category_id"`
	Amount            decimal.Decimal `json:"amount"`
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
	WarningThreshold  decimal.Decimal `json:"warning_threshold"`
	CriticalThreshold decimal.Decimal `json:"critical_threshold"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DefaultWarningThreshold and DefaultCriticalThreshold are applied when a
// budget is created without explicit thresholds.
var (
	DefaultWarningThreshold  = decimal.RequireFromString("0.80")
	DefaultCriticalThreshold = decimal.RequireFromString("1.00")
)

// CheckThreshold classifies the current spend against the thresholds.
// It is a stateless classification of the ratio: critical is checked first,
// then warning. A zero budget amount never crosses.
func (b *Budget) CheckThreshold(spent decimal.Decimal) (BudgetEventType, bool) {
	if b.Amount.IsZero() {
		return "", false
	}

	ratio := spent.Div(b.Amount)

	if ratio.GreaterThanOrEqual(b.CriticalThreshold) {
		return BudgetEventCritical, true
	}
	if ratio.GreaterThanOrEqual(b.WarningThreshold) {
		return BudgetEventWarning, true
	}
	return "", false
}

// PercentageSpent returns spend as a percentage of the budget amount.
func (b *Budget) PercentageSpent(spent decimal.Decimal) decimal.Decimal {
	if b.Amount.IsZero() {
		return decimal.Zero
	}
	return spent.Div(b.Amount).Mul(decimal.NewFromInt(100))
}

// Overlaps reports whether the given period overlaps this budget's period.
func (b *Budget) Overlaps(start, end time.Time) bool {
	return !start.After(b.PeriodEnd) && !end.Before(b.PeriodStart)
}

// BudgetPatch lists the budget fields that may be updated.
type BudgetPatch struct {
	Amount            *decimal.Decimal
	PeriodStart       *time.Time
	PeriodEnd         *time.Time
	WarningThreshold  *decimal.Decimal
	CriticalThreshold *decimal.Decimal
	IsActive          *bool
}

// Apply merges the patch into the budget field by field.
func (p BudgetPatch) Apply(b *Budget) {
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.PeriodStart != nil {
		b.PeriodStart = *p.PeriodStart
	}
	if p.PeriodEnd != nil {
		b.PeriodEnd = *p.PeriodEnd
	}
	if p.WarningThreshold != nil {
		b.WarningThreshold = *p.WarningThreshold
	}
	if p.CriticalThreshold != nil {
		b.CriticalThreshold = *p.CriticalThreshold
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
	b.UpdatedAt = time.Now().UTC()
}

// BudgetEvent is an immutable audit record appended each time a threshold is
// crossed. Events are never updated.
type BudgetEvent struct {
	ID                  string          `json:"id"`
	BudgetID            string          `json:"budget_id"`
	UserID              string          `json:"user_id"`
	EventType           BudgetEventType `json:"event_type"`
	ThresholdPercentage decimal.Decimal `json:"threshold_percentage"`
	CurrentSpent        decimal.Decimal `json:"current_spent"`
	BudgetAmount        decimal.Decimal `json:"budget_amount"`
	TriggeredAt         time.Time       `json:"triggered_at"`
}

// Consumption is the aggregated spend for a budget as of evaluation time.
// Percentage is on the percent scale (100 means fully spent, overspend goes
// above 100); the evaluator divides by 100 before comparing against
// threshold fractions.
type Consumption struct {
	Spent      decimal.Decimal `json:"spent"`
	Percentage decimal.Decimal `json:"percentage"`
}
