// Package ingest converts raw tabular rows into typed, validated records and
// enforces batch-level safety rules before anything touches a ledger.
package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Row is one raw ingested row: canonical field name to raw cell value.
// Number is the 1-based position in the source file, kept for error reports.
type Row struct {
	Number int
	Fields map[string]string
}

// Value returns the normalized cell value. ok is false when the cell is
// missing or holds a null-like token.
func (r Row) Value(field string) (string, bool) {
	raw, exists := r.Fields[field]
	if !exists {
		return "", false
	}
	trimmed := strings.TrimSpace(raw)
	if shared.IsNullLike(trimmed) {
		return "", false
	}
	return trimmed, true
}

// Raw returns the trimmed cell value without null-token normalization.
func (r Row) Raw(field string) string {
	return strings.TrimSpace(r.Fields[field])
}

// CanonicalField maps an arbitrary column label to its canonical camel-case
// field name: "Distributor Code" and "distributor  code" both become
// "distributorCode".
func CanonicalField(label string) string {
	words := strings.Fields(strings.TrimSpace(label))
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		lower := strings.ToLower(w)
		b.WriteString(strings.ToUpper(lower[:1]))
		b.WriteString(lower[1:])
	}
	return b.String()
}

// ParseAmount parses a locale-formatted amount, stripping thousands
// separators first. An unparseable amount fails the row; it never becomes
// zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("ingest: empty amount")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ingest: invalid amount %q: %w", raw, err)
	}
	return amount, nil
}

// Date layouts accepted by ingestion files.
const (
	DateShort = "02-01-06"
	DateLong  = "02-01-2006"
)

// ParseDate parses a date in the given dd-MM-yy(yy) layout and fails closed
// on mismatch; there is no fallback format.
func ParseDate(raw, layout string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("ingest: invalid date %q, expected %s: %w", raw, layout, err)
	}
	return t, nil
}

// ValidPhone reports whether raw is a 10-digit phone number.
func ValidPhone(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) != 10 {
		return false
	}
	for _, c := range trimmed {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
