// Package evaluate handles the budget evaluation command.
package evaluate

import (
	"github.com/spf13/cobra"

	"budgetflow/backend/cmd/root"
	"budgetflow/backend/internal/logging"
)

var (
	userID     string
	categoryID string
)

// Cmd represents the evaluate command.
var Cmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate budget thresholds for a category",
	Long: `Evaluate every active budget of a user for one category against its
current consumption. Crossed thresholds are recorded and, preferences
permitting, notified.`,
	RunE: evaluateFunc,
}

func evaluateFunc(cmd *cobra.Command, args []string) error {
	events, err := root.App.Budgets.EvaluateCategory(cmd.Context(), userID, categoryID)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		root.Log.Info("no thresholds crossed",
			logging.F("category_id", categoryID))
		return nil
	}
	for _, event := range events {
		root.Log.Info("threshold crossed",
			logging.F("budget_id", event.BudgetID),
			logging.F("event_type", string(event.EventType)),
			logging.F("spent", event.CurrentSpent.StringFixed(2)),
			logging.F("budget", event.BudgetAmount.StringFixed(2)),
			logging.F("percentage", event.ThresholdPercentage.StringFixed(0)))
	}
	return nil
}

func init() {
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	Cmd.Flags().StringVarP(&categoryID, "category", "c", "", "Category ID (required)")
	_ = Cmd.MarkFlagRequired("user")
	_ = Cmd.MarkFlagRequired("category")
}
