package insights

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
	"budgetflow/backend/internal/store"
)

// minTransactions is the smallest month worth analyzing. Below it the
// aggregates are noise and the analysis would be guesswork.
const minTransactions = 5

// topCategoryLimit caps the breakdown handed to the generator and stored in
// the payload.
const topCategoryLimit = 5

var hundred = decimal.NewFromInt(100)

// Store is the slice of persistence the insight service needs.
type Store interface {
	store.Transactions
	store.Categories
	store.Insights
}

// Dispatcher is the slice of the notification service used to announce a
// finished insight.
type Dispatcher interface {
	GetOrCreatePreferences(ctx context.Context, userID string) (models.NotificationPreferences, error)
	Dispatch(ctx context.Context, userID string, kind models.NotificationType, title, body string, data map[string]interface{}) (models.Notification, error)
}

// Service generates and serves monthly insights.
type Service struct {
	store      Store
	generator  Generator
	dispatcher Dispatcher
	log        logging.Logger
}

// NewService creates an insight service. The generator may be nil; the
// service then falls back to locally computed aggregates.
func NewService(s Store, generator Generator, dispatcher Dispatcher, logger logging.Logger) *Service {
	return &Service{
		store:      s,
		generator:  generator,
		dispatcher: dispatcher,
		log:        logger,
	}
}

// Generate builds the insight record for (user, month). monthYear uses the
// "2006-01" form. Regenerating an existing month replaces the stored record.
// A generator failure degrades to locally computed aggregates instead of
// failing the run.
func (s *Service) Generate(ctx context.Context, userID, monthYear string) (models.InsightRecord, error) {
	from, to, err := monthBounds(monthYear)
	if err != nil {
		return models.InsightRecord{}, err
	}

	transactions, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{
		From: &from,
		To:   &to,
	})
	if err != nil {
		return models.InsightRecord{}, fmt.Errorf("listing transactions for %s: %w", monthYear, err)
	}
	if len(transactions) < minTransactions {
		return models.InsightRecord{}, apperr.Errorf(apperr.KindInvalid,
			"insufficient transactions (%d) for insight generation, need at least %d",
			len(transactions), minTransactions)
	}

	req := s.aggregate(ctx, monthYear, transactions)

	payload, err := s.generatePayload(ctx, req)
	if err != nil {
		s.log.WithError(err).Warn("falling back to local aggregates",
			logging.F("month", monthYear))
		payload = fallbackPayload(req)
	}

	record := models.InsightRecord{
		ID:                 uuid.NewString(),
		UserID:             userID,
		MonthYear:          monthYear,
		Payload:            payload,
		IncomeEstimate:     req.IncomeEstimate,
		FixedCostsEstimate: req.FixedCostsEstimate,
		GeneratedAt:        time.Now().UTC(),
	}
	if err := s.store.SaveInsight(ctx, record); err != nil {
		return models.InsightRecord{}, fmt.Errorf("saving insight: %w", err)
	}

	s.notifyReady(ctx, record)
	return record, nil
}

// Get returns the stored insight for (user, month).
func (s *Service) Get(ctx context.Context, userID, monthYear string) (models.InsightRecord, error) {
	return s.store.GetInsight(ctx, userID, monthYear)
}

// List returns all stored insights for the user.
func (s *Service) List(ctx context.Context, userID string) ([]models.InsightRecord, error) {
	return s.store.ListInsights(ctx, userID)
}

func (s *Service) generatePayload(ctx context.Context, req Request) (models.InsightPayload, error) {
	if s.generator == nil {
		return models.InsightPayload{}, fmt.Errorf("no insight generator configured")
	}
	return s.generator.GenerateInsights(ctx, req)
}

// aggregate reduces the month's completed transactions to income, expense
// and fixed-cost estimates plus a per-category breakdown.
func (s *Service) aggregate(ctx context.Context, monthYear string, transactions []models.Transaction) Request {
	income := decimal.Zero
	expenses := decimal.Zero
	fixedCosts := decimal.Zero
	currency := ""
	spentByCategory := make(map[string]decimal.Decimal)

	for _, tx := range transactions {
		if tx.Status != models.StatusCompleted {
			continue
		}
		if currency == "" {
			currency = tx.Currency
		}
		if tx.Amount.IsPositive() {
			income = income.Add(tx.Amount)
			continue
		}
		spent := tx.Amount.Abs()
		expenses = expenses.Add(spent)
		if tx.IsRecurring {
			fixedCosts = fixedCosts.Add(spent)
		}
		spentByCategory[tx.CategoryID] = spentByCategory[tx.CategoryID].Add(spent)
	}

	breakdown := make([]models.CategoryBreakdown, 0, len(spentByCategory))
	for categoryID, spent := range spentByCategory {
		share := decimal.Zero
		if expenses.IsPositive() {
			share = spent.Mul(hundred).Div(expenses).Round(1)
		}
		breakdown = append(breakdown, models.CategoryBreakdown{
			Category: s.categoryName(ctx, categoryID),
			Spent:    spent,
			Share:    share,
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Spent.GreaterThan(breakdown[j].Spent)
	})
	if len(breakdown) > topCategoryLimit {
		breakdown = breakdown[:topCategoryLimit]
	}

	return Request{
		MonthYear:          monthYear,
		Currency:           currency,
		IncomeEstimate:     income,
		FixedCostsEstimate: fixedCosts,
		TotalExpenses:      expenses,
		TransactionCount:   len(transactions),
		Breakdown:          breakdown,
	}
}

func (s *Service) categoryName(ctx context.Context, categoryID string) string {
	if categoryID == "" {
		return "uncategorized"
	}
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return categoryID
	}
	return category.Name
}

// notifyReady announces the insight when the user's preferences allow it. A
// notification failure never fails the generation.
func (s *Service) notifyReady(ctx context.Context, record models.InsightRecord) {
	if s.dispatcher == nil {
		return
	}
	prefs, err := s.dispatcher.GetOrCreatePreferences(ctx, record.UserID)
	if err != nil {
		s.log.WithError(err).Warn("could not load notification preferences",
			logging.F("user_id", record.UserID))
		return
	}
	if !prefs.EnabledFor(models.NotificationInsightReady) {
		return
	}

	body := fmt.Sprintf("Check your financial insights for %s.", record.MonthYear)
	data := map[string]interface{}{
		"insight_id": record.ID,
		"month_year": record.MonthYear,
	}
	if _, err := s.dispatcher.Dispatch(ctx, record.UserID, models.NotificationInsightReady,
		"Your insights are ready", body, data); err != nil {
		s.log.WithError(err).Warn("could not dispatch insight notification",
			logging.F("insight_id", record.ID))
	}
}

// fallbackPayload builds a basic payload from the aggregates when the
// generator is unavailable.
func fallbackPayload(req Request) models.InsightPayload {
	savingsRate := decimal.Zero
	if req.IncomeEstimate.IsPositive() {
		savingsRate = req.IncomeEstimate.Sub(req.TotalExpenses).
			Mul(hundred).Div(req.IncomeEstimate).Round(1)
	}

	summary := fmt.Sprintf("In %s you recorded %d transactions, earning %s and spending %s.",
		req.MonthYear, req.TransactionCount,
		req.IncomeEstimate.StringFixed(2), req.TotalExpenses.StringFixed(2))

	return models.InsightPayload{
		Summary:        summary,
		TotalIncome:    req.IncomeEstimate,
		TotalExpenses:  req.TotalExpenses,
		SavingsRate:    savingsRate,
		TopCategories:  req.Breakdown,
		Recommendation: "Keep recording your transactions and set budgets for your top spending categories.",
	}
}

// monthBounds returns the inclusive first and last instants of monthYear.
func monthBounds(monthYear string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", monthYear)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Errorf(apperr.KindInvalid,
			"invalid month %q, expected YYYY-MM", monthYear)
	}
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end, nil
}
