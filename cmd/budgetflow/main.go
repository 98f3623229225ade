// Package main provides the entry point for the budgetflow CLI application.
package main

import (
	"os"

	"budgetflow/backend/cmd/evaluate"
	"budgetflow/backend/cmd/export"
	"budgetflow/backend/cmd/imports"
	"budgetflow/backend/cmd/root"
)

func main() {
	root.Cmd.AddCommand(imports.Cmd)
	root.Cmd.AddCommand(evaluate.Cmd)
	root.Cmd.AddCommand(export.Cmd)

	if err := root.Cmd.Execute(); err != nil {
		root.Log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
