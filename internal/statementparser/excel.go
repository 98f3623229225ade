package statementparser

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"budgetflow/backend/internal/columnmap"
	"budgetflow/backend/internal/dateutils"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
)

// ParseExcel parses the first sheet of an xlsx workbook. Row one must hold
// the headers; a sheet with fewer than two rows fails with a single error.
// Date cells stored as Excel serial numbers are converted to ISO dates before
// column mapping.
func ParseExcel(data []byte, currency string) ([]models.TransactionCandidate, []string) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, []string{fmt.Sprintf("failed to open workbook: %v", err)}
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, []string{"workbook contains no sheets"}
	}
	sheet := sheets[0]

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, []string{fmt.Sprintf("failed to read sheet '%s': %v", sheet, err)}
	}
	if len(rows) < 2 {
		return nil, []string{"sheet must contain a header row and at least one data row"}
	}

	headers := rows[0]
	cols := columnmap.ResolveColumns(headers)
	log.Debug("parsing excel sheet",
		logging.F("sheet", sheet),
		logging.F("rows", len(rows)-1))

	var (
		candidates []models.TransactionCandidate
		errs       []string
	)
	for i, record := range rows[1:] {
		row := recordToRow(headers, record)
		if columnmap.IsEmptyRow(row) {
			continue
		}
		if cols.Date != "" {
			row[cols.Date] = normalizeExcelDate(row[cols.Date])
		}
		candidate, err := columnmap.RowToCandidate(row, cols, currency, time.Now)
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, errs
}

// normalizeExcelDate maps a date cell value to an ISO date string. Cells may
// hold a formatted date string or a raw Excel serial number, depending on the
// cell style of the export.
func normalizeExcelDate(value string) string {
	if date, err := dateutils.ParseDate(value); err == nil {
		return dateutils.ToISODate(date)
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		if date, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return dateutils.ToISODate(date)
		}
	}
	return value
}
