package categorizer

import (
	"context"

	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
)

// Chain runs strategies in order and returns the first decision. A strategy
// error is logged and the chain moves on; with no decision the configured
// fallback category ID is returned (empty string means leave uncategorized).
type Chain struct {
	strategies []Strategy
	fallback   string
	logger     logging.Logger
}

// NewChain creates a strategy chain with an optional fallback category ID.
func NewChain(strategies []Strategy, fallback string, logger logging.Logger) *Chain {
	return &Chain{
		strategies: strategies,
		fallback:   fallback,
		logger:     logger,
	}
}

// Categorize returns the category ID for the candidate. The boolean reports
// whether any strategy decided; when false the fallback (possibly empty) is
// returned.
func (c *Chain) Categorize(ctx context.Context, candidate models.TransactionCandidate) (string, bool) {
	for _, strategy := range c.strategies {
		categoryID, found, err := strategy.Categorize(ctx, candidate)
		if err != nil {
			c.logger.WithError(err).Warn("categorization strategy failed",
				logging.F("strategy", strategy.Name()))
			continue
		}
		if found {
			return categoryID, true
		}
	}
	return c.fallback, false
}
