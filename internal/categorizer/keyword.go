package categorizer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
)

// CategoryConfig maps a category to the keywords that identify it.
type CategoryConfig struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// CategoriesConfig is the structure of the categories YAML file.
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}

// LoadCategoriesConfig reads and parses the categories YAML file.
func LoadCategoriesConfig(path string) (CategoriesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CategoriesConfig{}, fmt.Errorf("could not read categories file: %w", err)
	}

	var config CategoriesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return CategoriesConfig{}, fmt.Errorf("could not parse categories file: %w", err)
	}
	return config, nil
}

// KeywordStrategy categorizes by case-insensitive substring matching of
// configured keywords against the candidate's description and merchant name.
type KeywordStrategy struct {
	categories []CategoryConfig
	logger     logging.Logger
}

// NewKeywordStrategy creates a KeywordStrategy from loaded configuration.
func NewKeywordStrategy(categories []CategoryConfig, logger logging.Logger) *KeywordStrategy {
	return &KeywordStrategy{
		categories: categories,
		logger:     logger,
	}
}

// Name returns the name of this strategy for logging and debugging.
func (s *KeywordStrategy) Name() string {
	return "Keyword"
}

// Categorize matches configured keywords against the candidate.
func (s *KeywordStrategy) Categorize(_ context.Context, candidate models.TransactionCandidate) (string, bool, error) {
	text := strings.ToUpper(candidate.Description + " " + candidate.MerchantName)
	if strings.TrimSpace(text) == "" {
		return "", false, nil
	}

	for _, category := range s.categories {
		for _, keyword := range category.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(text, strings.ToUpper(keyword)) {
				s.logger.Debug("transaction categorized by keyword",
					logging.F("strategy", s.Name()),
					logging.F("keyword", keyword),
					logging.F("category", category.Name))
				return category.ID, true, nil
			}
		}
	}

	return "", false, nil
}
