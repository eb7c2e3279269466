package reconcile

import (
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/ingest"
)

// OnboardingReport summarizes one onboarding file upsert.
type OnboardingReport struct {
	BatchID  string `json:"batchId"`
	Total    int    `json:"totalRows"`
	Upserted int    `json:"upsertedRows"`
}

// ReplaceReport summarizes one credit-limit refresh: an atomic replacement of
// an anchor's ledger.
type ReplaceReport struct {
	BatchID  string `json:"batchId"`
	AnchorID string `json:"anchorId"`
	Total    int    `json:"totalRows"`
	Replaced int    `json:"replacedRows"`
}

// InvoiceReport summarizes a partial-success invoice creation batch.
type InvoiceReport struct {
	BatchID  string            `json:"batchId"`
	Total    int               `json:"totalRows"`
	Created  int               `json:"createdRows"`
	Skipped  []string          `json:"skippedInvoices,omitempty"`
	Failures []ingest.RowError `json:"failures,omitempty"`
}

// SettlementReport summarizes a best-effort settlement file application.
type SettlementReport struct {
	BatchID    string            `json:"batchId"`
	Total      int               `json:"totalRows"`
	Updated    int               `json:"successfulRows"`
	Skipped    []string          `json:"skippedInvoices,omitempty"`
	NotFound   []string          `json:"notFoundInvoices,omitempty"`
	Failures   []ingest.RowError `json:"failures,omitempty"`
	Recomputes int               `json:"exposureRecomputes"`
}

func newBatchID() string {
	return uuid.NewString()
}
