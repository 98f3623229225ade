package categorizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"budgetflow/backend/internal/currencyutils"
	"budgetflow/backend/internal/dateutils"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
)

// AIClient is the minimal surface of the generative backend used for
// categorization. The indirection keeps AIStrategy testable without network
// access.
type AIClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	log    logging.Logger
}

// NewGeminiClient creates a Gemini-backed AI client.
func NewGeminiClient(ctx context.Context, apiKey, model string, logger logging.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  client.GenerativeModel(model),
		log:    logger,
	}, nil
}

// GenerateText sends the prompt and returns the first candidate's text.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini API")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// AIStrategy categorizes via the AI client. It asks for exactly one of the
// configured category names and maps the answer back to the category ID.
type AIStrategy struct {
	client     AIClient
	categories []CategoryConfig
	timeout    time.Duration
	logger     logging.Logger
}

// NewAIStrategy creates an AIStrategy. A nil client disables the strategy.
func NewAIStrategy(client AIClient, categories []CategoryConfig, timeout time.Duration, logger logging.Logger) *AIStrategy {
	return &AIStrategy{
		client:     client,
		categories: categories,
		timeout:    timeout,
		logger:     logger,
	}
}

// Name returns the name of this strategy for logging and debugging.
func (s *AIStrategy) Name() string {
	return "AI"
}

// Categorize asks the AI backend to pick a category for the candidate.
// Failures are logged and reported as found=false, never as hard errors.
func (s *AIStrategy) Categorize(ctx context.Context, candidate models.TransactionCandidate) (string, bool, error) {
	if s.client == nil {
		return "", false, nil
	}
	if strings.TrimSpace(candidate.Description) == "" {
		return "", false, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	response, err := s.client.GenerateText(ctx, s.buildPrompt(candidate))
	if err != nil {
		s.logger.WithError(err).Warn("AI categorization failed",
			logging.F("strategy", s.Name()),
			logging.F("description", candidate.Description))
		return "", false, nil
	}

	name := extractCategoryName(response)
	for _, category := range s.categories {
		if strings.EqualFold(category.Name, name) {
			s.logger.Debug("transaction categorized by AI",
				logging.F("strategy", s.Name()),
				logging.F("category", category.Name))
			return category.ID, true, nil
		}
	}

	s.logger.Debug("AI returned unknown category",
		logging.F("strategy", s.Name()),
		logging.F("answer", name))
	return "", false, nil
}

func (s *AIStrategy) buildPrompt(candidate models.TransactionCandidate) string {
	names := make([]string, 0, len(s.categories))
	for _, category := range s.categories {
		names = append(names, category.Name)
	}

	return fmt.Sprintf(`Categorize the following financial transaction:
Description: %s
Amount: %s
Date: %s

Assign this transaction to exactly one of the following categories:
%s

Respond in this format:
Category: [Selected Category Name]`,
		candidate.Description,
		currencyutils.FormatAmount(candidate.Amount, candidate.Currency),
		dateutils.ToISODate(candidate.Date),
		strings.Join(names, ", "))
}

// extractCategoryName pulls the "Category:" line out of the response, or the
// first non-empty line when the model ignored the requested format.
func extractCategoryName(response string) string {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Category:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Category:"))
		}
	}
	for _, line := range strings.Split(response, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
