package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account owns a running balance and a currency code. The balance equals the
// sum of all non-deleted transaction amounts on the account since creation;
// every insert/update/delete that changes an amount must adjust the balance
// by the delta in the same unit of work.
type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Scope     OwnerScope      `json:"owner_scope"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	BankName  string          `json:"bank_name,omitempty"`
	IBANLast4 string          `json:"iban_last4,omitempty"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsProfessional reports whether the account is in the professional scope.
func (a *Account) IsProfessional() bool {
	return a.Scope == ScopeProfessional
}

// AccountPatch lists the account fields that may be updated. Nil fields are
// left untouched by Apply.
type AccountPatch struct {
	Name      *string
	Type      *AccountType
	Scope     *OwnerScope
	BankName  *string
	IBANLast4 *string
	IsActive  *bool
}

// Apply merges the patch into the account field by field.
func (p AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Scope != nil {
		a.Scope = *p.Scope
	}
	if p.BankName != nil {
		a.BankName = *p.BankName
	}
	if p.IBANLast4 != nil {
		a.IBANLast4 = *p.IBANLast4
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	a.UpdatedAt = time.Now().UTC()
}
