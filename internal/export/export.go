// Package export writes a user's transactions as a normalized CSV, one
// canonical column set regardless of the statement format they were
// imported from.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"budgetflow/backend/internal/dateutils"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
	"budgetflow/backend/internal/store"
)

// transactionRow is the canonical CSV shape.
type transactionRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Merchant    string `csv:"Merchant"`
	Category    string `csv:"Category"`
	Amount      string `csv:"Amount"`
	Currency    string `csv:"Currency"`
	Status      string `csv:"Status"`
	Source      string `csv:"Source"`
	Notes       string `csv:"Notes"`
}

// Store is the slice of persistence the exporter needs.
type Store interface {
	store.Transactions
	store.Categories
}

// Service writes transaction exports.
type Service struct {
	store Store
	log   logging.Logger
}

// NewService creates an export service.
func NewService(s Store, logger logging.Logger) *Service {
	return &Service{store: s, log: logger}
}

// Export writes the user's transactions matching the filter to w as CSV and
// returns the number of rows written.
func (s *Service) Export(ctx context.Context, userID string, filter store.TransactionFilter, w io.Writer) (int, error) {
	transactions, err := s.store.ListTransactions(ctx, userID, filter)
	if err != nil {
		return 0, fmt.Errorf("listing transactions: %w", err)
	}

	names := make(map[string]string)
	rows := make([]transactionRow, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, s.toRow(ctx, tx, names))
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return 0, fmt.Errorf("writing CSV: %w", err)
	}

	s.log.Info("transactions exported",
		logging.F("user_id", userID),
		logging.F("count", len(rows)))
	return len(rows), nil
}

// ExportToFile writes the export to path, creating parent directories as
// needed.
func (s *Service) ExportToFile(ctx context.Context, userID string, filter store.TransactionFilter, path string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return 0, fmt.Errorf("creating export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating export file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.log.WithError(err).Warn("could not close export file",
				logging.F("file", path))
		}
	}()

	return s.Export(ctx, userID, filter, file)
}

func (s *Service) toRow(ctx context.Context, tx models.Transaction, names map[string]string) transactionRow {
	source := "imported"
	if tx.IsManual {
		source = "manual"
	}
	return transactionRow{
		Date:        dateutils.ToISODate(tx.Date),
		Description: tx.Description,
		Merchant:    tx.MerchantName,
		Category:    s.categoryName(ctx, tx.CategoryID, names),
		Amount:      tx.Amount.StringFixed(2),
		Currency:    tx.Currency,
		Status:      string(tx.Status),
		Source:      source,
		Notes:       tx.Notes,
	}
}

// categoryName resolves a category ID to its display name, caching lookups
// for the duration of one export.
func (s *Service) categoryName(ctx context.Context, categoryID string, cache map[string]string) string {
	if categoryID == "" {
		return ""
	}
	if name, ok := cache[categoryID]; ok {
		return name
	}
	name := categoryID
	if category, err := s.store.GetCategory(ctx, categoryID); err == nil {
		name = category.Name
	}
	cache[categoryID] = name
	return name
}
