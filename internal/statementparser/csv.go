package statementparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"budgetflow/backend/internal/columnmap"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
)

// utf8BOM is stripped before parsing; Excel prepends it to CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses a delimited statement. The delimiter is sniffed from the
// header line: a semicolon-delimited export (the common French bank style) is
// recognized when the header carries more semicolons than commas. A file with
// no data rows yields zero candidates and zero errors.
func ParseCSV(data []byte, currency string) ([]models.TransactionCandidate, []string) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		records [][]string
		errs    []string
	)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, errs
	}

	headers := records[0]
	cols := columnmap.ResolveColumns(headers)
	log.Debug("resolved statement columns",
		logging.F("date", cols.Date),
		logging.F("description", cols.Description),
		logging.F("amount", cols.Amount))

	var candidates []models.TransactionCandidate
	for i, record := range records[1:] {
		row := recordToRow(headers, record)
		if columnmap.IsEmptyRow(row) {
			continue
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

// sniffDelimiter inspects the header line only. Any semicolon there selects
// `;`; European exports using it as the field separator still write commas
// inside labels, so presence beats counting.
func sniffDelimiter(data []byte) rune {
	headerLine := string(data)
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		headerLine = string(data[:idx])
	}
	if strings.Contains(headerLine, ";") {
		return ';'
	}
	return ','
}

func recordToRow(headers []string, record []string) map[string]string {
	row := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(record) {
			row[header] = record[i]
		} else {
			row[header] = ""
		}
	}
	return row
}
