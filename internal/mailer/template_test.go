package mailer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFill(t *testing.T) {
	out := Fill("Invoice {{invoiceNumber}} for {{ companyName }}", map[string]string{
		"invoiceNumber": "INV-1",
		"companyName":   "Acme",
	})
	require.Equal(t, "Invoice INV-1 for Acme", out)

	// Unknown markers stay visible.
	out = Fill("Hello {{missing}}", map[string]string{})
	require.Equal(t, "Hello {{missing}}", out)
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "1,00,000", FormatAmount(decimal.NewFromInt(100000)))
	require.Equal(t, "40,000", FormatAmount(decimal.NewFromInt(40000)))
	require.Equal(t, "500", FormatAmount(decimal.NewFromInt(500)))
}
