// Package export handles the transaction export command.
package export

import (
	"github.com/spf13/cobra"

	"budgetflow/backend/cmd/root"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/store"
)

var (
	userID     string
	output     string
	accountID  string
	categoryID string
)

// Cmd represents the export command.
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export transactions to a normalized CSV",
	Long: `Export a user's transactions as a normalized CSV with one canonical
column set, regardless of the statement format they were imported from.`,
	RunE: exportFunc,
}

func exportFunc(cmd *cobra.Command, args []string) error {
	filter := store.TransactionFilter{
		AccountID:  accountID,
		CategoryID: categoryID,
	}
	count, err := root.App.Exporter.ExportToFile(cmd.Context(), userID, filter, output)
	if err != nil {
		return err
	}

	root.Log.Info("export completed",
		logging.F("file", output),
		logging.F("rows", count))
	return nil
}

func init() {
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "Output CSV file (required)")
	Cmd.Flags().StringVarP(&accountID, "account", "a", "", "Only export transactions of this account")
	Cmd.Flags().StringVarP(&categoryID, "category", "c", "", "Only export transactions of this category")
	_ = Cmd.MarkFlagRequired("user")
	_ = Cmd.MarkFlagRequired("output")
}
