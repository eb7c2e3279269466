package ingest

import (
	"fmt"
	"strings"
)

// SchemaError rejects a whole batch whose header does not match the
// required-field contract. Both lists are reported at once.
type SchemaError struct {
	MissingFields []string
	ExtraFields   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("ingest: header mismatch: missing [%s] extra [%s]",
		strings.Join(e.MissingFields, ", "), strings.Join(e.ExtraFields, ", "))
}

// DuplicateKeyError rejects a whole batch containing a repeated natural key.
// A duplicate inside one file almost always indicates an upstream export bug
// and must not be resolved by last-write-wins.
type DuplicateKeyError struct {
	Field string
	Keys  []string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("ingest: duplicate %s values in batch: %s", e.Field, strings.Join(e.Keys, ", "))
}

// RowError reports a single row that failed type, format or enum checks.
type RowError struct {
	RowNumber int    `json:"rowNumber"`
	Key       string `json:"key,omitempty"`
	Message   string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("ingest: row %d (%s): %s", e.RowNumber, e.Key, e.Message)
}

// BatchRowErrors aggregates row failures for batch-aborting use cases so the
// caller sees every bad row, not just the first.
type BatchRowErrors struct {
	Rows []RowError
}

func (e *BatchRowErrors) Error() string {
	return fmt.Sprintf("ingest: %d row(s) failed validation", len(e.Rows))
}
