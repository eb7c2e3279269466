package objstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvoicePDFKey(t *testing.T) {
	require.Equal(t, "invoices/A1/INV-1.pdf", InvoicePDFKey("A1", "INV-1"))
	require.Equal(t, "invoices/A_1/INV_1.pdf", InvoicePDFKey("A 1", "INV/1"))
	require.Equal(t, "invoices/unknown/unknown.pdf", InvoicePDFKey("", " "))
}

func TestDetectContentType(t *testing.T) {
	require.Equal(t, "application/octet-stream", detectContentType(nil))
	require.Equal(t, "application/pdf", detectContentType([]byte("%PDF-1.4 stub")))
}
