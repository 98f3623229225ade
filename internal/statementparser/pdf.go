package statementparser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"budgetflow/backend/internal/columnmap"
	"budgetflow/backend/internal/currencyutils"
	"budgetflow/backend/internal/dateutils"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
)

// cellGap is the horizontal distance, in points, between two text runs that
// separates table cells. Runs closer than this are fragments of one cell.
const cellGap = 4.0

// amountTailRe matches the trailing "amount balance" pair of a narrative
// statement line. Thousands may be grouped with regular or non-breaking
// spaces; the decimal part is always two digits.
var amountTailRe = regexp.MustCompile(`(-?\d[\d \x{a0}]*[.,]\d{2})\s+(-?\d[\d \x{a0}]*[.,]\d{2})\s*$`)

// ParsePDF parses a PDF statement. It first attempts table mode: rows are
// reconstructed from positioned text on each page, and any page whose rows
// contain a recognizable header (description plus an amount source) is mapped
// through the column mapper. When no page yields such a header the statement
// falls back to narrative mode, which scans the plain text for lines ending
// in an amount/balance pair. Narrative mode is tuned to the Wise statement
// layout and makes no promises about other narrative exports.
func ParsePDF(data []byte, currency string) ([]models.TransactionCandidate, []string) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, []string{fmt.Sprintf("failed to open PDF: %v", err)}
	}

	candidates, errs, tableMode := parsePDFTables(reader, currency)
	if tableMode {
		return candidates, errs
	}

	log.Debug("no tabular page found, falling back to narrative mode")
	lines, err := pdfPlainLines(reader)
	if err != nil {
		return nil, []string{fmt.Sprintf("failed to extract PDF text: %v", err)}
	}
	return parseNarrativeLines(lines, currency)
}

// parsePDFTables reconstructs rows per page and converts them wherever a
// header row is recognized. The third result reports whether any page had a
// usable header; without one the caller falls back to narrative mode.
func parsePDFTables(reader *pdf.Reader, currency string) ([]models.TransactionCandidate, []string, bool) {
	var (
		candidates []models.TransactionCandidate
		errs       []string
		foundTable bool
	)

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			errs = append(errs, fmt.Sprintf("page %d: %v", pageNum, err))
			continue
		}

		var (
			headers []string
			cols    columnmap.Columns
		)
		for rowNum, row := range rows {
			cells := rowCells(row)
			if len(cells) == 0 {
				continue
			}
			if headers == nil {
				resolved := columnmap.ResolveColumns(cells)
				if resolved.Description != "" && resolved.HasAmountSource() {
					headers = cells
					cols = resolved
					foundTable = true
				}
				continue
			}

			mapped := recordToRow(headers, cells)
			if columnmap.IsEmptyRow(mapped) {
				continue
			}
			candidate, err := columnmap.RowToCandidate(mapped, cols, currency, time.Now)
			if err != nil {
				errs = append(errs, fmt.Sprintf("page %d row %d: %v", pageNum, rowNum+1, err))
				continue
			}
			candidates = append(candidates, candidate)
		}
	}

	if !foundTable {
		return nil, nil, false
	}
	return candidates, errs, true
}

// rowCells merges the positioned text runs of one row into cells, splitting
// where the horizontal gap exceeds cellGap.
func rowCells(row *pdf.Row) []string {
	var (
		cells   []string
		current strings.Builder
		lastEnd float64
	)
	for i, text := range row.Content {
		if i > 0 && text.X-lastEnd > cellGap {
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(text.S)
		lastEnd = text.X + text.W
	}
	if current.Len() > 0 {
		cells = append(cells, strings.TrimSpace(current.String()))
	}
	return cells
}

func pdfPlainLines(reader *pdf.Reader) ([]string, error) {
	var buf bytes.Buffer
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return strings.Split(buf.String(), "\n"), nil
}

// parseNarrativeLines scans for lines ending in an amount/balance pair. The
// transaction date is a French long date ("12 février 2025") on the same
// line or within the next three lines.
func parseNarrativeLines(lines []string, currency string) ([]models.TransactionCandidate, []string) {
	var (
		candidates []models.TransactionCandidate
		errs       []string
	)

	for i, line := range lines {
		m := amountTailRe.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}

		amountStr := line[m[2]:m[3]]
		amount, err := currencyutils.ParseAmount(amountStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: unparseable amount '%s'", i+1, amountStr))
			continue
		}

		description := strings.TrimSpace(line[:m[0]])
		if description == "" {
			errs = append(errs, fmt.Sprintf("line %d: missing description", i+1))
			continue
		}

		date, ok := findNarrativeDate(lines, i)
		if !ok {
			errs = append(errs, fmt.Sprintf("line %d: transaction date not found near '%s'", i+1, description))
			continue
		}

		candidates = append(candidates, models.TransactionCandidate{
			Amount:      amount,
			Currency:    currency,
			Date:        date,
			Description: description,
		})
	}

	log.Debug("narrative mode finished",
		logging.F("candidates", len(candidates)),
		logging.F("errors", len(errs)))
	return candidates, errs
}

// findNarrativeDate looks for a French date on the matched line or up to
// three lines below it, where the Wise layout places it.
func findNarrativeDate(lines []string, index int) (time.Time, bool) {
	for offset := 0; offset <= 3; offset++ {
		if index+offset >= len(lines) {
			break
		}
		if date, ok := dateutils.ParseFrenchDate(lines[index+offset]); ok {
			return date, true
		}
	}
	return time.Time{}, false
}
