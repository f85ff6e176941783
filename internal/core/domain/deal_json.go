package domain

import (
	"encoding/json"
	"fmt"
)

// Source files store each record's category under a dataset-specific key
// ("Cust_Type", "Team", ...); the other keys are fixed.
const (
	fieldCount   = "count"
	fieldACV     = "acv"
	fieldQuarter = "closed_fiscal_quarter"
)

// DecodeDealRecords parses a JSON array of deal rows, taking each row's
// category from categoryField. Unknown keys are ignored and absent keys leave
// the zero value for validation to report.
func DecodeDealRecords(data []byte, categoryField string) ([]DealRecord, error) {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	records := make([]DealRecord, 0, len(rows))
	for i, row := range rows {
		var rec DealRecord
		fields := []struct {
			key string
			dst any
		}{
			{fieldCount, &rec.Count},
			{fieldACV, &rec.ACV},
			{fieldQuarter, &rec.Quarter},
			{categoryField, &rec.Category},
		}
		for _, f := range fields {
			raw, ok := row[f.key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, f.dst); err != nil {
				return nil, fmt.Errorf("row %d: field %q: %w", i, f.key, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// EncodeDealRecords renders records in the source file layout.
func EncodeDealRecords(records []DealRecord, categoryField string) ([]byte, error) {
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]any{
			fieldCount:    rec.Count,
			fieldACV:      rec.ACV,
			fieldQuarter:  rec.Quarter,
			categoryField: rec.Category,
		})
	}
	return json.Marshal(rows)
}
