// Package categorizer assigns categories to parsed transactions. Strategies
// are tried in order; keyword matching first, then the AI fallback. A
// strategy that cannot decide reports found=false rather than an error, so
// categorization stays best-effort and never blocks an import.
package categorizer

import (
	"context"

	"budgetflow/backend/internal/models"
)

// Strategy defines one approach to categorizing a transaction candidate.
type Strategy interface {
	// Categorize returns the category ID for the candidate, a boolean
	// indicating whether this strategy could decide, and any error.
	Categorize(ctx context.Context, candidate models.TransactionCandidate) (string, bool, error)

	// Name identifies the strategy in logs.
	Name() string
}
