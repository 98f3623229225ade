// Package models defines the domain entities shared by the import pipeline,
// the budget evaluator and the notification dispatcher. Monetary values use
// shopspring decimals throughout; float64 never touches an amount.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a persisted ledger entry on an account.
type Transaction struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	AccountID    string            `json:"account_id"`
	Amount       decimal.Decimal   `json:"amount"`
	Currency     string            `json:"currency"`
	Date         time.Time         `json:"date"`
	Description  string            `json:"description"`
	CategoryID   string            `json:"category_id,omitempty"`
	MerchantName string            `json:"merchant_name,omitempty"`
	IsRecurring  bool              `json:"is_recurring"`
	IsManual     bool              `json:"is_manual"`
	Status       TransactionStatus `json:"status"`
	Notes        string            `json:"notes,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	DeletedAt    *time.Time        `json:"deleted_at,omitempty"`
}

// IsExpense reports whether the transaction reduces the balance.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the transaction increases the balance.
func (t *Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsDeleted reports whether the transaction was soft-deleted.
func (t *Transaction) IsDeleted() bool {
	return t.DeletedAt != nil
}

// SoftDelete marks the transaction as deleted without removing the row.
func (t *Transaction) SoftDelete() {
	now := time.Now().UTC()
	t.DeletedAt = &now
}

// TransactionCandidate is a parsed-but-not-yet-persisted transaction produced
// by a format parser. It exists only in memory during an import. Amount is
// never the sentinel zero unless the source row explicitly carried one; a
// zero derived from missing debit/credit columns is a parse error upstream.
type TransactionCandidate struct {
	Amount       decimal.Decimal
	Currency     string
	Date         time.Time
	Description  string
	MerchantName string
	CategoryID   string
}

// Materialize turns a candidate into a persistable Transaction.
func (c TransactionCandidate) Materialize(id, userID, accountID string) Transaction {
	now := time.Now().UTC()
	return Transaction{
		ID:          id,
		UserID:      userID,
		AccountID:   accountID,
		Amount:      c.Amount,
		Currency:    c.Currency,
		Date:        c.Date,
		Description: c.Description,
		CategoryID:  c.CategoryID,

		MerchantName: c.MerchantName,
		IsManual:     false,
		Status:       StatusCompleted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TransactionPatch lists the transaction fields that may be updated. Only
// manual transactions accept patches; the ledger service enforces that rule.
type TransactionPatch struct {
	Amount       *decimal.Decimal
	Date         *time.Time
	Description  *string
	CategoryID   *string
	MerchantName *string
	Notes        *string
	Tags         *[]string
}

// Apply merges the patch into the transaction field by field.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.MerchantName != nil {
		t.MerchantName = *p.MerchantName
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	t.UpdatedAt = time.Now().UTC()
}
