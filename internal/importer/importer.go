// Package importer orchestrates statement imports: it selects the format
// parser, enforces limits, verifies the target account, categorizes the
// parsed candidates, and persists them together with the balance adjustment
// as one unit of work.
package importer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
	"budgetflow/backend/internal/statementparser"
	"budgetflow/backend/internal/store"
)

// Categorizer assigns a category ID to a candidate, best-effort.
type Categorizer interface {
	Categorize(ctx context.Context, candidate models.TransactionCandidate) (string, bool)
}

// EvaluationScheduler queues a budget evaluation for (user, category). The
// import result never waits on it.
type EvaluationScheduler interface {
	ScheduleEvaluation(userID, categoryID string)
}

// Store is the slice of persistence the importer needs.
type Store interface {
	store.Accounts
	store.Transactions
	store.Imports
}

// Service runs statement imports.
type Service struct {
	store       Store
	categorizer Categorizer
	scheduler   EvaluationScheduler
	maxFileSize int64
	log         logging.Logger
}

// NewService creates an import service. Categorizer and scheduler may be nil;
// imports then skip categorization and evaluation respectively.
func NewService(s Store, categorizer Categorizer, scheduler EvaluationScheduler, maxFileSize int64, logger logging.Logger) *Service {
	return &Service{
		store:       s,
		categorizer: categorizer,
		scheduler:   scheduler,
		maxFileSize: maxFileSize,
		log:         logger,
	}
}

// Input describes one statement import request.
type Input struct {
	UserID    string
	AccountID string
	FileName  string
	Format    string
	Data      []byte
}

// Result reports the outcome of a successful import. RowErrors lists the
// rows that were skipped; they never fail an import that produced at least
// one transaction.
type Result struct {
	Imported  int
	RowErrors []string
	History   models.ImportHistory
}

// ImportBase64 decodes base64 content and imports it.
func (s *Service) ImportBase64(ctx context.Context, input Input, content string) (Result, error) {
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInvalid, "invalid base64 content", err)
	}
	input.Data = data
	return s.Import(ctx, input)
}

// Import runs one statement import.
//
// A file whose rows all fail parsing fails the import entirely: no
// transactions are persisted and the balance is untouched. A file with zero
// rows and zero errors succeeds with Imported=0. Transactions persist in
// file row order; the balance moves by the sum of all imported amounts in
// the same unit of work as the inserts.
func (s *Service) Import(ctx context.Context, input Input) (Result, error) {
	if s.maxFileSize > 0 && int64(len(input.Data)) > s.maxFileSize {
		return Result{}, apperr.Errorf(apperr.KindInvalid,
			"file exceeds the maximum size of %d bytes", s.maxFileSize)
	}

	parser, err := statementparser.ForFormat(input.Format)
	if err != nil {
		return Result{}, err
	}

	account, err := s.store.GetAccount(ctx, input.UserID, input.AccountID)
	if err != nil {
		return Result{}, err
	}

	history := models.ImportHistory{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		AccountID:  input.AccountID,
		FileName:   input.FileName,
		FileType:   strings.ToUpper(input.Format),
		Status:     models.ImportProcessing,
		ImportedAt: time.Now().UTC(),
	}

	candidates, rowErrors := parser(input.Data, account.Currency)
	s.log.Info("statement parsed",
		logging.F("file", input.FileName),
		logging.F("candidates", len(candidates)),
		logging.F("row_errors", len(rowErrors)))

	if len(candidates) == 0 && len(rowErrors) > 0 {
		reason := strings.Join(rowErrors, "; ")
		history.MarkFailed(reason)
		s.saveHistory(ctx, history)
		return Result{}, apperr.Errorf(apperr.KindInvalid, "no valid rows in statement: %s", reason)
	}
	if len(candidates) == 0 {
		history.MarkSuccess(0)
		s.saveHistory(ctx, history)
		return Result{Imported: 0, History: history}, nil
	}

	transactions := make([]models.Transaction, 0, len(candidates))
	delta := decimal.Zero
	affected := make(map[string]struct{})
	for _, candidate := range candidates {
		if s.categorizer != nil && candidate.CategoryID == "" {
			// Best-effort: an undecided categorization leaves the row
			// uncategorized, it never fails the import.
			if categoryID, _ := s.categorizer.Categorize(ctx, candidate); categoryID != "" {
				candidate.CategoryID = categoryID
			}
		}
		tx := candidate.Materialize(uuid.NewString(), input.UserID, input.AccountID)
		transactions = append(transactions, tx)
		delta = delta.Add(tx.Amount)
		if tx.CategoryID != "" {
			affected[tx.CategoryID] = struct{}{}
		}
	}

	if err := s.store.BulkInsertTransactions(ctx, input.AccountID, transactions, delta); err != nil {
		history.MarkFailed(err.Error())
		s.saveHistory(ctx, history)
		return Result{}, fmt.Errorf("persisting imported transactions: %w", err)
	}

	history.MarkSuccess(len(transactions))
	s.saveHistory(ctx, history)

	if s.scheduler != nil {
		for categoryID := range affected {
			s.scheduler.ScheduleEvaluation(input.UserID, categoryID)
		}
	}

	s.log.Info("import finished",
		logging.F("file", input.FileName),
		logging.F("imported", len(transactions)),
		logging.F("balance_delta", delta.String()))
	return Result{
		Imported:  len(transactions),
		RowErrors: rowErrors,
		History:   history,
	}, nil
}

// History lists the user's past imports.
func (s *Service) History(ctx context.Context, userID string) ([]models.ImportHistory, error) {
	return s.store.ListImportHistory(ctx, userID)
}

// saveHistory records the import outcome. History is bookkeeping; a failure
// to record it never changes the import result.
func (s *Service) saveHistory(ctx context.Context, history models.ImportHistory) {
	if err := s.store.SaveImportHistory(ctx, history); err != nil {
		s.log.WithError(err).Warn("could not save import history",
			logging.F("import_id", history.ID))
	}
}
