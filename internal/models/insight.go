package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryBreakdown is one category's share of a month's spending.
type CategoryBreakdown struct {
	Category string          `json:"category"`
	Spent    decimal.Decimal `json:"spent"`
	Share    decimal.Decimal `json:"share"`
}

// InsightPayload is the structured result of monthly insight generation.
// The shape is explicit rather than an untyped JSON blob so the core can
// read it without guessing.
type InsightPayload struct {
	Summary        string              `json:"summary"`
	TotalIncome    decimal.Decimal     `json:"total_income"`
	TotalExpenses  decimal.Decimal     `json:"total_expenses"`
	SavingsRate    decimal.Decimal     `json:"savings_rate"`
	TopCategories  []CategoryBreakdown `json:"top_categories"`
	Recommendation string              `json:"recommendation,omitempty"`
}

// InsightRecord is a persisted monthly insight for a user.
type InsightRecord struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	MonthYear          string          `json:"month_year"` // "2025-01"
	Payload            InsightPayload  `json:"payload"`
	IncomeEstimate     decimal.Decimal `json:"income_estimate"`
	FixedCostsEstimate decimal.Decimal `json:"fixed_costs_estimate"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// ImportHistory records the outcome of a statement import.
type ImportHistory struct {
	ID                   string       `json:"id"`
	UserID               string       `json:"user_id"`
	AccountID            string       `json:"account_id"`
	FileName             string       `json:"file_name"`
	FileType             string       `json:"file_type"`
	TransactionsImported int          `json:"transactions_imported"`
	Status               ImportStatus `json:"status"`
	ErrorMessage         string       `json:"error_message,omitempty"`
	ImportedAt           time.Time    `json:"imported_at"`
}

// MarkSuccess marks the import as successful with the given count.
func (h *ImportHistory) MarkSuccess(count int) {
	h.Status = ImportSuccess
	h.TransactionsImported = count
}

// MarkFailed marks the import as failed with the given reason.
func (h *ImportHistory) MarkFailed(reason string) {
	h.Status = ImportFailed
	h.ErrorMessage = reason
}

// Category is a transaction category, either system-defined or user-defined.
type Category struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	UserID           string    `json:"user_id,omitempty"`
	Icon             string    `json:"icon,omitempty"`
	Color            string    `json:"color,omitempty"`
	IsSystem         bool      `json:"is_system"`
	ParentCategoryID string    `json:"parent_category_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
