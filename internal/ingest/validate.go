package ingest

import (
	"sort"
	"strings"
)

// HeaderPolicy controls whether unexpected columns fail the batch.
type HeaderPolicy int

const (
	// HeaderStrict rejects both missing and unexpected columns.
	HeaderStrict HeaderPolicy = iota
	// HeaderAllowExtra rejects missing columns but ignores extras. Settlement
	// exports routinely append bank-side columns the engine does not consume.
	HeaderAllowExtra
)

// ValidateHeader checks the first row's columns against the required-field
// contract. It returns a SchemaError listing every missing and (under
// HeaderStrict) every unexpected column.
func ValidateHeader(rows []Row, required []string, policy HeaderPolicy) error {
	if len(rows) == 0 {
		return &SchemaError{MissingFields: required}
	}
	present := make(map[string]bool, len(rows[0].Fields))
	for field := range rows[0].Fields {
		present[field] = true
	}

	var missing []string
	for _, f := range required {
		if !present[f] {
			missing = append(missing, f)
		}
	}

	var extra []string
	if policy == HeaderStrict {
		requiredSet := make(map[string]bool, len(required))
		for _, f := range required {
			requiredSet[f] = true
		}
		for field := range present {
			if !requiredSet[field] {
				extra = append(extra, field)
			}
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return &SchemaError{MissingFields: missing, ExtraFields: extra}
}

// CheckDuplicateKeys scans rows in file order and returns a
// DuplicateKeyError naming every repeated value of the batch's natural key.
// Any in-batch duplicate rejects the entire batch.
func CheckDuplicateKeys(rows []Row, keyField string) error {
	seen := make(map[string]bool, len(rows))
	dup := make(map[string]bool)
	var dupOrder []string
	for _, row := range rows {
		key, ok := row.Value(keyField)
		if !ok {
			continue
		}
		if seen[key] && !dup[key] {
			dup[key] = true
			dupOrder = append(dupOrder, key)
		}
		seen[key] = true
	}
	if len(dupOrder) == 0 {
		return nil
	}
	return &DuplicateKeyError{Field: keyField, Keys: dupOrder}
}

// DropEmptyRows removes rows whose every cell is blank. Exported spreadsheets
// often carry trailing empty lines.
func DropEmptyRows(rows []Row) []Row {
	out := rows[:0:0]
	for _, row := range rows {
		empty := true
		for _, v := range row.Fields {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}
