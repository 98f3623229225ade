package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings goal with progress tracking. Goals are hard-deleted.
type Goal struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	TargetAmount    decimal.Decimal `json:"target_amount"`
	CurrentAmount   decimal.Decimal `json:"current_amount"`
	TargetDate      time.Time       `json:"target_date"`
	Priority        int             `json:"priority"`
	LinkedAccountID string          `json:"linked_account_id,omitempty"`
	Status          GoalStatus      `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProgressPercentage returns progress as a percentage of the target amount.
func (g *Goal) ProgressPercentage() decimal.Decimal {
	if g.TargetAmount.IsZero() {
		return decimal.Zero
	}
	return g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
}

// IsCompleted reports whether the target amount has been reached.
func (g *Goal) IsCompleted() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// AddProgress increments the goal and auto-completes it when the target is
// reached while the goal is still active.
func (g *Goal) AddProgress(amount decimal.Decimal) {
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	if g.IsCompleted() && g.Status == GoalActive {
		g.Status = GoalCompleted
	}
	g.UpdatedAt = time.Now().UTC()
}

// GoalPatch lists the goal fields that may be updated.
type GoalPatch struct {
	Title           *string
	Description     *string
	TargetAmount    *decimal.Decimal
	TargetDate      *time.Time
	Priority        *int
	LinkedAccountID *string
	Status          *GoalStatus
}

// Apply merges the patch into the goal field by field.
func (p GoalPatch) Apply(g *Goal) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
	if p.Priority != nil {
		g.Priority = *p.Priority
	}
	if p.LinkedAccountID != nil {
		g.LinkedAccountID = *p.LinkedAccountID
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	g.UpdatedAt = time.Now().UTC()
}
