package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBudgetCheckThreshold(t *testing.T) {
	budget := &Budget{
		Amount:            dec("100"),
		WarningThreshold:  dec("0.80"),
		CriticalThreshold: dec("1.00"),
	}

	tests := []struct {
		name      string
		spent     string
		eventType BudgetEventType
		crossed   bool
	}{
		{"below warning", "79", "", false},
		{"at warning", "80", BudgetEventWarning, true},
		{"between thresholds", "85", BudgetEventWarning, true},
		{"at critical", "100", BudgetEventCritical, true},
		{"over critical", "142.50", BudgetEventCritical, true},
		{"zero spend", "0", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eventType, crossed := budget.CheckThreshold(dec(tc.spent))
			assert.Equal(t, tc.crossed, crossed)
			assert.Equal(t, tc.eventType, eventType)
		})
	}
}

func TestBudgetCheckThresholdZeroAmount(t *testing.T) {
	budget := &Budget{
		Amount:            decimal.Zero,
		WarningThreshold:  DefaultWarningThreshold,
		CriticalThreshold: DefaultCriticalThreshold,
	}

	_, crossed := budget.CheckThreshold(dec("50"))
	assert.False(t, crossed)
}

func TestBudgetPercentageSpent(t *testing.T) {
	budget := &Budget{Amount: dec("200")}
	assert.True(t, dec("42.5").Equal(budget.PercentageSpent(dec("85"))))

	empty := &Budget{Amount: decimal.Zero}
	assert.True(t, decimal.Zero.Equal(empty.PercentageSpent(dec("85"))))
}

func TestBudgetOverlaps(t *testing.T) {
	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	budget := &Budget{PeriodStart: jan1, PeriodEnd: jan31}

	feb1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	feb28 := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)

	assert.True(t, budget.Overlaps(jan1, jan31))
	assert.True(t, budget.Overlaps(jan31, feb28))
	assert.False(t, budget.Overlaps(feb1, feb28))
}

func TestBudgetPatchApply(t *testing.T) {
	budget := &Budget{Amount: dec("100"), IsActive: true}

	newAmount := dec("250")
	inactive := false
	BudgetPatch{Amount: &newAmount, IsActive: &inactive}.Apply(budget)

	assert.True(t, dec("250").Equal(budget.Amount))
	assert.False(t, budget.IsActive)
	assert.False(t, budget.UpdatedAt.IsZero())
}
