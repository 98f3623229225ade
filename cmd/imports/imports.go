// Package imports handles the statement import command.
package imports

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"budgetflow/backend/cmd/root"
	"budgetflow/backend/internal/importer"
	"budgetflow/backend/internal/logging"
)

var (
	file      string
	userID    string
	accountID string
	format    string
	currency  string
)

// Cmd represents the import command.
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import a bank statement file",
	Long: `Import a bank statement in CSV, Excel, JSON or PDF form into an
account. Rows that cannot be parsed are reported and skipped; the rest are
normalized, categorized and persisted.`,
	RunE: importFunc,
}

// extFormats maps file extensions to statement formats for --format
// autodetection.
var extFormats = map[string]string{
	".csv":  "CSV",
	".xlsx": "EXCEL",
	".xls":  "EXCEL",
	".json": "JSON",
	".pdf":  "PDF",
}

func importFunc(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	resolved := format
	if resolved == "" {
		resolved = extFormats[strings.ToLower(filepath.Ext(file))]
	}

	if _, err := root.App.EnsureAccount(cmd.Context(), userID, accountID, currency); err != nil {
		return err
	}

	result, err := root.App.Importer.Import(cmd.Context(), importer.Input{
		UserID:    userID,
		AccountID: accountID,
		FileName:  filepath.Base(file),
		Format:    resolved,
		Data:      data,
	})
	if err != nil {
		return err
	}

	for _, rowErr := range result.RowErrors {
		root.Log.Warn("row skipped", logging.F("reason", rowErr))
	}
	root.Log.Info("import completed",
		logging.F("file", result.History.FileName),
		logging.F("imported", result.Imported),
		logging.F("skipped", len(result.RowErrors)))
	return nil
}

func init() {
	Cmd.Flags().StringVarP(&file, "file", "i", "", "Statement file to import (required)")
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	Cmd.Flags().StringVarP(&accountID, "account", "a", "", "Account ID (required)")
	Cmd.Flags().StringVarP(&format, "format", "f", "", "Statement format (CSV, EXCEL, JSON, PDF); inferred from the file extension when omitted")
	Cmd.Flags().StringVarP(&currency, "currency", "c", "EUR", "Account currency when the account has to be created")
	_ = Cmd.MarkFlagRequired("file")
	_ = Cmd.MarkFlagRequired("user")
	_ = Cmd.MarkFlagRequired("account")
}
