// Package statementparser turns raw bank statement files (CSV, Excel, JSON,
// PDF) into transaction candidates. Parsers never abort on a bad row; they
// collect row-scoped error strings and keep going, so one malformed line does
// not discard an otherwise valid statement.
package statementparser

import (
	"sort"
	"strings"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
)

var log logging.Logger = logging.NewLogrusAdapter("info", "text")

// SetLogger sets the logger used by this package.
func SetLogger(logger logging.Logger) {
	if logger != nil {
		log = logger
	}
}

// Parser converts raw statement bytes into transaction candidates plus
// row-scoped error strings. The currency is stamped on every candidate;
// statements carry no per-row currency of their own.
type Parser func(data []byte, currency string) ([]models.TransactionCandidate, []string)

var registry = map[string]Parser{
	"CSV":   ParseCSV,
	"EXCEL": ParseExcel,
	"JSON":  ParseJSON,
	"PDF":   ParsePDF,
}

// ForFormat returns the parser registered for the given format tag. The tag
// is matched case-insensitively.
func ForFormat(format string) (Parser, error) {
	parser, ok := registry[strings.ToUpper(strings.TrimSpace(format))]
	if !ok {
		return nil, apperr.Errorf(apperr.KindInvalid,
			"unsupported file format '%s', supported formats: %s",
			format, strings.Join(SupportedFormats(), ", "))
	}
	return parser, nil
}

// SupportedFormats returns the registered format tags, sorted.
func SupportedFormats() []string {
	formats := make([]string, 0, len(registry))
	for format := range registry {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}
