package root

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/budget"
	"budgetflow/backend/internal/categorizer"
	"budgetflow/backend/internal/config"
	"budgetflow/backend/internal/export"
	"budgetflow/backend/internal/goals"
	"budgetflow/backend/internal/importer"
	"budgetflow/backend/internal/insights"
	"budgetflow/backend/internal/jobs"
	"budgetflow/backend/internal/ledger"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
	"budgetflow/backend/internal/notify"
	"budgetflow/backend/internal/store"
)

// Application wires every service around one in-memory store. Commands reach
// the services through it instead of constructing their own.
type Application struct {
	Store     *store.Memory
	Notifier  *notify.Service
	Budgets   *budget.Service
	Goals     *goals.Service
	Ledger    *ledger.Service
	Importer  *importer.Service
	Insights  *insights.Service
	Exporter  *export.Service
	Queue     *jobs.Queue
	Scheduler *jobs.EvaluationScheduler

	ai  *categorizer.GeminiClient
	log logging.Logger
}

// NewApplication builds the full service graph from the configuration and
// starts the background worker pool.
func NewApplication(ctx context.Context, cfg *config.Config, log logging.Logger) (*Application, error) {
	mem := store.NewMemory()

	var pusher notify.Pusher
	if cfg.Push.Enabled {
		pusher = notify.NewExpoPush(cfg.Push.Endpoint, cfg.Push.AccessToken,
			time.Duration(cfg.Push.TimeoutSeconds)*time.Second, log)
	}
	notifier := notify.NewService(mem, pusher, log)

	budgets := budget.NewService(mem, mem, notifier, log)

	queue := jobs.NewQueue(cfg.Worker.BufferSize, cfg.Worker.Workers, jobs.RetryPolicy{
		MaxAttempts: cfg.Worker.MaxAttempts,
		Backoff:     time.Duration(cfg.Worker.BackoffSeconds) * time.Second,
	}, log)
	queue.Start(ctx, jobs.EvaluationHandler(budgets))
	scheduler := jobs.NewEvaluationScheduler(queue, log)

	categoriesCfg, err := categorizer.LoadCategoriesConfig(cfg.Categorization.CategoriesFile)
	if err != nil {
		log.WithError(err).Warn("categories file not loaded, keyword matching disabled",
			logging.F("file", cfg.Categorization.CategoriesFile))
	}

	strategies := []categorizer.Strategy{
		categorizer.NewKeywordStrategy(categoriesCfg.Categories, log),
	}
	var ai *categorizer.GeminiClient
	if cfg.AI.Enabled {
		ai, err = categorizer.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, log)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, categorizer.NewAIStrategy(ai, categoriesCfg.Categories,
			time.Duration(cfg.AI.TimeoutSeconds)*time.Second, log))
	}
	chain := categorizer.NewChain(strategies, cfg.AI.FallbackCategory, log)

	var generator insights.Generator
	if ai != nil {
		generator = insights.NewGeminiGenerator(ai, log)
	}

	app := &Application{
		Store:     mem,
		Notifier:  notifier,
		Budgets:   budgets,
		Goals:     goals.NewService(mem, notifier, log),
		Ledger:    ledger.NewService(mem, chain, scheduler, log),
		Importer:  importer.NewService(mem, chain, scheduler, cfg.MaxFileSizeBytes(), log),
		Insights:  insights.NewService(mem, generator, notifier, log),
		Exporter:  export.NewService(mem, log),
		Queue:     queue,
		Scheduler: scheduler,
		ai:        ai,
		log:       log,
	}
	app.seedCategories(ctx, categoriesCfg)
	return app, nil
}

// Close drains the worker pool and releases the AI client.
func (a *Application) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := a.Queue.Stop(ctx)
	if a.ai != nil {
		if closeErr := a.ai.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

// EnsureAccount returns the user's account, creating it when absent. The CLI
// runs against the in-memory store, so a first import bootstraps its own
// account.
func (a *Application) EnsureAccount(ctx context.Context, userID, accountID, currency string) (models.Account, error) {
	account, err := a.Store.GetAccount(ctx, userID, accountID)
	if err == nil {
		return account, nil
	}
	if !apperr.IsNotFound(err) {
		return models.Account{}, err
	}

	now := time.Now().UTC()
	account = models.Account{
		ID:        accountID,
		UserID:    userID,
		Name:      accountID,
		Type:      models.AccountChecking,
		Scope:     models.ScopePersonal,
		Currency:  currency,
		Balance:   decimal.Zero,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.Store.CreateAccount(ctx, account); err != nil {
		return models.Account{}, err
	}
	a.log.Info("account created",
		logging.F("account_id", accountID),
		logging.F("currency", currency))
	return account, nil
}

// seedCategories registers the configured categories as system categories so
// lookups by ID resolve to display names.
func (a *Application) seedCategories(ctx context.Context, cfg categorizer.CategoriesConfig) {
	now := time.Now().UTC()
	for _, category := range cfg.Categories {
		err := a.Store.CreateCategory(ctx, models.Category{
			ID:        category.ID,
			Name:      category.Name,
			IsSystem:  true,
			CreatedAt: now,
		})
		if err != nil {
			a.log.WithError(err).Warn("could not seed category",
				logging.F("category", category.Name))
		}
	}
}
