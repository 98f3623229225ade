// Package insights produces AI-assisted monthly spending summaries. The
// heavy lifting happens in the generative backend; this package aggregates
// the month's transactions, asks for a strict-JSON analysis, and persists
// the result.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"budgetflow/backend/internal/categorizer"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
)

// Request carries the pre-aggregated month context handed to the generator.
// Raw transactions never leave the process; only aggregates do.
type Request struct {
	MonthYear          string
	Currency           string
	IncomeEstimate     decimal.Decimal
	FixedCostsEstimate decimal.Decimal
	TotalExpenses      decimal.Decimal
	TransactionCount   int
	Breakdown          []models.CategoryBreakdown
}

// Generator turns a month's aggregates into an insight payload.
type Generator interface {
	GenerateInsights(ctx context.Context, req Request) (models.InsightPayload, error)
}

// GeminiGenerator asks the Gemini API for the analysis. It shares the
// AIClient surface with the categorizer so one API client serves both.
type GeminiGenerator struct {
	client categorizer.AIClient
	log    logging.Logger
}

// NewGeminiGenerator creates a generator backed by client.
func NewGeminiGenerator(client categorizer.AIClient, logger logging.Logger) *GeminiGenerator {
	return &GeminiGenerator{client: client, log: logger}
}

// GenerateInsights sends the aggregates and parses the strict-JSON answer.
func (g *GeminiGenerator) GenerateInsights(ctx context.Context, req Request) (models.InsightPayload, error) {
	if g.client == nil {
		return models.InsightPayload{}, fmt.Errorf("no AI client configured")
	}

	response, err := g.client.GenerateText(ctx, buildInsightPrompt(req))
	if err != nil {
		return models.InsightPayload{}, fmt.Errorf("insight generation failed: %w", err)
	}

	var payload models.InsightPayload
	if err := json.Unmarshal([]byte(stripJSONFences(response)), &payload); err != nil {
		return models.InsightPayload{}, fmt.Errorf("insight response is not valid JSON: %w", err)
	}
	if payload.Summary == "" {
		return models.InsightPayload{}, fmt.Errorf("insight response is missing a summary")
	}
	return payload, nil
}

func buildInsightPrompt(req Request) string {
	var breakdown strings.Builder
	for _, entry := range req.Breakdown {
		fmt.Fprintf(&breakdown, "- %s: %s (%s%%)\n",
			entry.Category, entry.Spent.StringFixed(2), entry.Share.StringFixed(1))
	}

	return fmt.Sprintf(`You are a personal finance analyst. Analyze the following month and produce actionable insights.

Month: %s
Currency: %s
Estimated income: %s
Estimated fixed costs: %s
Total expenses: %s
Transaction count: %d

Spending by category:
%s
Respond ONLY with strict JSON in exactly this shape, no additional text:
{
  "summary": "two or three sentences about the month",
  "total_income": 0.0,
  "total_expenses": 0.0,
  "savings_rate": 0.0,
  "top_categories": [
    {"category": "name", "spent": 0.0, "share": 0.0}
  ],
  "recommendation": "one concrete action"
}`,
		req.MonthYear,
		req.Currency,
		req.IncomeEstimate.StringFixed(2),
		req.FixedCostsEstimate.StringFixed(2),
		req.TotalExpenses.StringFixed(2),
		req.TransactionCount,
		breakdown.String())
}

// stripJSONFences removes a surrounding markdown code fence when the model
// ignored the no-additional-text instruction.
func stripJSONFences(response string) string {
	response = strings.TrimSpace(response)
	if idx := strings.Index(response, "```json"); idx >= 0 {
		response = response[idx+len("```json"):]
		if end := strings.Index(response, "```"); end >= 0 {
			response = response[:end]
		}
		return strings.TrimSpace(response)
	}
	if idx := strings.Index(response, "```"); idx >= 0 {
		response = response[idx+len("```"):]
		if end := strings.Index(response, "```"); end >= 0 {
			response = response[:end]
		}
		return strings.TrimSpace(response)
	}
	return response
}
