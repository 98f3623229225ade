// Package columnmap resolves which columns of a statement row hold the
// date, description and amount fields, across the header spellings used by
// real-world bank exports, and converts rows into transaction candidates.
package columnmap

import (
	"fmt"
	"strings"
	"time"

	"budgetflow/backend/internal/currencyutils"
	"budgetflow/backend/internal/dateutils"
	"budgetflow/backend/internal/models"

	"github.com/shopspring/decimal"
)

// Recognized header synonyms per logical field, covering English and French
// bank export variants. Matching is exact after trimming; no fuzzy matching.
var (
	dateColumns = synonymSet(
		"date", "Date", "DATE",
		"fecha", "transaction_date", "Transaction Date", "Datum",
	)
	descriptionColumns = synonymSet(
		"description", "Description", "DESCRIPTION",
		"libelle", "Libellé", "libellé", "LIBELLE",
		"label", "Label", "LABEL",
		"memo", "Memo",
		"reference", "Reference",
	)
	amountColumns = synonymSet(
		"amount", "Amount", "AMOUNT",
		"montant", "Montant", "MONTANT", "Betrag",
	)
	debitColumns = synonymSet(
		"debit", "Debit", "DEBIT", "débit", "Débit",
	)
	creditColumns = synonymSet(
		"credit", "Credit", "CREDIT", "crédit", "Crédit",
	)
)

func synonymSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Columns holds the resolved header name for each logical field. An empty
// string means no header matched.
type Columns struct {
	Date        string
	Description string
	Amount      string
	Debit       string
	Credit      string
}

// HasAmountSource reports whether the row layout can yield an amount at all.
func (c Columns) HasAmountSource() bool {
	return c.Amount != "" || c.Debit != "" || c.Credit != ""
}

// ResolveColumns maps headers to logical fields. For each field the first
// header in file order that exactly matches a synonym wins.
func ResolveColumns(headers []string) Columns {
	var cols Columns
	for _, header := range headers {
		stripped := strings.TrimSpace(header)
		if cols.Date == "" {
			if _, ok := dateColumns[stripped]; ok {
				cols.Date = header
				continue
			}
		}
		if cols.Description == "" {
			if _, ok := descriptionColumns[stripped]; ok {
				cols.Description = header
				continue
			}
		}
		if cols.Amount == "" {
			if _, ok := amountColumns[stripped]; ok {
				cols.Amount = header
				continue
			}
		}
		if cols.Debit == "" {
			if _, ok := debitColumns[stripped]; ok {
				cols.Debit = header
				continue
			}
		}
		if cols.Credit == "" {
			if _, ok := creditColumns[stripped]; ok {
				cols.Credit = header
			}
		}
	}
	return cols
}

// RowToCandidate converts a row of named fields into a transaction
// candidate.
//
// A row converts only if the description resolves to a non-empty value and
// an amount can be derived. When the amount column is absent or empty, the
// debit/credit fallback applies: amount = -|debit| when debit is present,
// overridden by +|credit| when credit is present. An amount of exactly zero
// under the fallback path fails the row. A missing or unparseable date does
// not fail the row; it defaults to now.
func RowToCandidate(row map[string]string, cols Columns, currency string, now func() time.Time) (models.TransactionCandidate, error) {
	if !cols.HasAmountSource() {
		return models.TransactionCandidate{}, fmt.Errorf("no amount, debit or credit column found")
	}

	date := now().UTC()
	if cols.Date != "" {
		if raw := strings.TrimSpace(row[cols.Date]); raw != "" {
			if parsed, err := dateutils.ParseDate(raw); err == nil {
				date = parsed
			}
			// unparseable date keeps the default
		}
	}

	description := ""
	if cols.Description != "" {
		description = strings.TrimSpace(row[cols.Description])
	}
	if description == "" {
		return models.TransactionCandidate{}, fmt.Errorf("missing description")
	}

	amount, err := deriveAmount(row, cols)
	if err != nil {
		return models.TransactionCandidate{}, err
	}

	return models.TransactionCandidate{
		Amount:      amount,
		Currency:    currency,
		Date:        date,
		Description: description,
	}, nil
}

func deriveAmount(row map[string]string, cols Columns) (decimal.Decimal, error) {
	if cols.Amount != "" {
		if raw := strings.TrimSpace(row[cols.Amount]); raw != "" {
			amount, err := currencyutils.ParseAmount(raw)
			if err != nil {
				return decimal.Zero, fmt.Errorf("unparseable amount '%s'", raw)
			}
			return amount, nil
		}
	}

	// Fallback: debit and credit may combine; credit wins when both carry
	// a value.
	amount := decimal.Zero
	if cols.Debit != "" {
		if raw := strings.TrimSpace(row[cols.Debit]); raw != "" {
			debit, err := currencyutils.ParseAmount(raw)
			if err != nil {
				return decimal.Zero, fmt.Errorf("unparseable debit '%s'", raw)
			}
			amount = debit.Abs().Neg()
		}
	}
	if cols.Credit != "" {
		if raw := strings.TrimSpace(row[cols.Credit]); raw != "" {
			credit, err := currencyutils.ParseAmount(raw)
			if err != nil {
				return decimal.Zero, fmt.Errorf("unparseable credit '%s'", raw)
			}
			amount = credit.Abs()
		}
	}

	if amount.IsZero() {
		return decimal.Zero, fmt.Errorf("missing amount")
	}
	return amount, nil
}

// IsEmptyRow reports whether every field of the row is blank. Empty rows are
// skipped silently rather than reported as errors.
func IsEmptyRow(row map[string]string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
