package statementparser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"budgetflow/backend/internal/columnmap"
	"budgetflow/backend/internal/models"
)

// ParseJSON parses a statement exported as a top-level JSON array of flat
// objects. Each object's own keys are resolved against the column synonyms,
// so records with divergent schemas fail individually instead of poisoning
// their siblings. Values are stringified and run through the same column
// mapper as the tabular formats, so "amount": -3.5 and "amount": "-3,50"
// both work. An empty array yields zero candidates and zero errors.
func ParseJSON(data []byte, currency string) ([]models.TransactionCandidate, []string) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, []string{fmt.Sprintf("invalid JSON statement: %v", err)}
	}
	// A top-level null decodes into a nil slice without error.
	if records == nil {
		return nil, []string{"invalid JSON statement: top-level value must be an array"}
	}

	var (
		candidates []models.TransactionCandidate
		errs       []string
	)
	for i, raw := range records {
		record, err := decodeJSONObject(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("record %d: %v", i+1, err))
			continue
		}

		// JSON objects carry no column order, so sort for a stable outcome.
		headers := make([]string, 0, len(record))
		row := make(map[string]string, len(record))
		for key, value := range record {
			headers = append(headers, key)
			row[key] = stringifyJSONValue(value)
		}
		sort.Strings(headers)
		cols := columnmap.ResolveColumns(headers)

		if columnmap.IsEmptyRow(row) {
			continue
		}
		candidate, err := columnmap.RowToCandidate(row, cols, currency, time.Now)
		if err != nil {
			errs = append(errs, fmt.Sprintf("record %d: %v", i+1, err))
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, errs
}

func decodeJSONObject(raw json.RawMessage) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var record map[string]interface{}
	if err := decoder.Decode(&record); err != nil || record == nil {
		return nil, fmt.Errorf("element is not a JSON object")
	}
	return record, nil
}

func stringifyJSONValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
