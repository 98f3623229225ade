// Package root contains the root command for the application.
package root

import (
	"github.com/spf13/cobra"

	"budgetflow/backend/internal/config"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/statementparser"
)

var (
	// Log is the shared logger instance for commands.
	Log = logging.NewLogrusAdapter("info", "text")

	// Cfg holds the loaded configuration after PersistentPreRunE.
	Cfg *config.Config

	// App holds the wired services after PersistentPreRunE.
	App *Application

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "budgetflow",
		Short: "Import bank statements, track budgets and get monthly insights.",
		Long: `budgetflow imports bank statements in CSV, Excel, JSON or PDF form,
normalizes and categorizes the transactions, evaluates budget thresholds
and exports a canonical transaction CSV.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to budgetflow!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()

			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			Cfg = cfg

			Log = logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))
			statementparser.SetLogger(Log)

			app, err := NewApplication(cmd.Context(), cfg, Log)
			if err != nil {
				return err
			}
			App = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if App == nil {
				return nil
			}
			// Drains queued budget evaluations before the process exits.
			return App.Close(cmd.Context())
		},
	}
)
