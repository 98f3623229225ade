// Package ledger manages manually entered transactions. Imported rows are
// immutable history; only manual entries may be edited or deleted, and every
// amount change moves the account balance by the exact delta.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
	"budgetflow/backend/internal/store"
)

// Categorizer assigns a category ID to a candidate, best-effort.
type Categorizer interface {
	Categorize(ctx context.Context, candidate models.TransactionCandidate) (string, bool)
}

// EvaluationScheduler queues a budget evaluation for (user, category).
type EvaluationScheduler interface {
	ScheduleEvaluation(userID, categoryID string)
}

// Store is the slice of persistence the ledger needs.
type Store interface {
	store.Accounts
	store.Transactions
}

// Service implements the manual transaction lifecycle.
type Service struct {
	store       Store
	categorizer Categorizer
	scheduler   EvaluationScheduler
	log         logging.Logger
}

// NewService creates a ledger service. Categorizer and scheduler may be nil.
func NewService(s Store, categorizer Categorizer, scheduler EvaluationScheduler, logger logging.Logger) *Service {
	return &Service{
		store:       s,
		categorizer: categorizer,
		scheduler:   scheduler,
		log:         logger,
	}
}

// CreateInput carries the fields for a manual transaction. A zero Date
// defaults to now; the currency always comes from the account.
type CreateInput struct {
	UserID       string
	AccountID    string
	Amount       decimal.Decimal
	Date         time.Time
	Description  string
	CategoryID   string
	MerchantName string
	Notes        string
	Tags         []string
}

// Create validates and persists a manual transaction, adjusting the account
// balance by the amount in the same unit of work.
func (s *Service) Create(ctx context.Context, input CreateInput) (models.Transaction, error) {
	if input.Amount.IsZero() {
		return models.Transaction{}, apperr.E(apperr.KindInvalid, "transaction amount must be non-zero")
	}
	if input.Description == "" {
		return models.Transaction{}, apperr.E(apperr.KindInvalid, "transaction description is required")
	}

	account, err := s.store.GetAccount(ctx, input.UserID, input.AccountID)
	if err != nil {
		return models.Transaction{}, err
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	categoryID := input.CategoryID
	if categoryID == "" && s.categorizer != nil {
		categoryID, _ = s.categorizer.Categorize(ctx, models.TransactionCandidate{
			Amount:       input.Amount,
			Currency:     account.Currency,
			Date:         date,
			Description:  input.Description,
			MerchantName: input.MerchantName,
		})
	}

	now := time.Now().UTC()
	tx := models.Transaction{
		ID:           uuid.NewString(),
		UserID:       input.UserID,
		AccountID:    input.AccountID,
		Amount:       input.Amount,
		Currency:     account.Currency,
		Date:         date,
		Description:  input.Description,
		CategoryID:   categoryID,
		MerchantName: input.MerchantName,
		IsManual:     true,
		Status:       models.StatusCompleted,
		Notes:        input.Notes,
		Tags:         input.Tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateTransaction(ctx, tx, tx.Amount); err != nil {
		return models.Transaction{}, err
	}

	s.log.Info("manual transaction created",
		logging.F("transaction_id", tx.ID),
		logging.F("amount", tx.Amount.String()))
	s.scheduleEvaluation(tx)
	return tx, nil
}

// Update applies the patch to one of the user's manual transactions. The
// balance moves by the difference between the new and old amounts.
func (s *Service) Update(ctx context.Context, userID, transactionID string, patch models.TransactionPatch) (models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	if !tx.IsManual {
		return models.Transaction{}, apperr.E(apperr.KindInvalid, "only manual transactions can be updated")
	}
	if tx.IsDeleted() {
		return models.Transaction{}, apperr.Errorf(apperr.KindNotFound, "transaction %s not found", transactionID)
	}

	oldAmount := tx.Amount
	patch.Apply(&tx)
	if tx.Amount.IsZero() {
		return models.Transaction{}, apperr.E(apperr.KindInvalid, "transaction amount must be non-zero")
	}

	delta := tx.Amount.Sub(oldAmount)
	if err := s.store.UpdateTransaction(ctx, tx, delta); err != nil {
		return models.Transaction{}, err
	}

	s.scheduleEvaluation(tx)
	return tx, nil
}

// Delete soft-deletes a manual transaction and reverses its balance effect.
func (s *Service) Delete(ctx context.Context, userID, transactionID string) error {
	tx, err := s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return err
	}
	if !tx.IsManual {
		return apperr.E(apperr.KindInvalid, "only manual transactions can be deleted")
	}
	if tx.IsDeleted() {
		return apperr.Errorf(apperr.KindNotFound, "transaction %s not found", transactionID)
	}

	tx.SoftDelete()
	if err := s.store.UpdateTransaction(ctx, tx, tx.Amount.Neg()); err != nil {
		return err
	}

	s.log.Info("manual transaction deleted",
		logging.F("transaction_id", tx.ID))
	s.scheduleEvaluation(tx)
	return nil
}

// Get returns one of the user's transactions.
func (s *Service) Get(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, transactionID)
}

// List returns the user's transactions matching the filter.
func (s *Service) List(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, filter)
}

// scheduleEvaluation re-checks the transaction's budget category; spending
// changes can cross a threshold in either direction.
func (s *Service) scheduleEvaluation(tx models.Transaction) {
	if s.scheduler == nil || tx.CategoryID == "" {
		return
	}
	s.scheduler.ScheduleEvaluation(tx.UserID, tx.CategoryID)
}
