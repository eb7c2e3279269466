package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/creditledger"
	"github.com/ledgerline/ledgerline/internal/ingest"
)

var creditLimitFields = []string{
	"companyName", "distributorCode", "city", "state", "lender",
	"limitExpiryDate", "sanctionLimit", "operativeLimit", "utilisedLimit",
	"availableLimit", "overdue", "anchorId", "fundingType",
	"distributorPhone", "distributorEmail",
}

// ReplaceCreditLimits applies a credit-limit refresh file: the anchor's
// entire ledger is deleted and rebuilt in one transaction. The file must
// cover exactly one anchor. Derived exposure fields are recomputed against
// the invoice ledger before the rows are written, never trusted from the
// file.
func (s *Service) ReplaceCreditLimits(ctx context.Context, rows []ingest.Row) (*ReplaceReport, error) {
	start := time.Now()
	rows = ingest.DropEmptyRows(rows)

	if err := ingest.ValidateHeader(rows, creditLimitFields, ingest.HeaderStrict); err != nil {
		s.observe(useCaseCreditLimits, outcomeRejected, start)
		return nil, err
	}
	if err := ingest.CheckDuplicateKeys(rows, "distributorCode"); err != nil {
		s.observe(useCaseCreditLimits, outcomeRejected, start)
		return nil, err
	}

	entries := make([]creditledger.Entry, 0, len(rows))
	var rowErrs []ingest.RowError
	anchorID := ""
	for _, row := range rows {
		entry, err := parseCreditLimitRow(row)
		if err != nil {
			code, _ := row.Value("distributorCode")
			rowErrs = append(rowErrs, ingest.RowError{RowNumber: row.Number, Key: code, Message: err.Error()})
			continue
		}
		switch {
		case anchorID == "":
			anchorID = entry.AnchorID
		case entry.AnchorID != anchorID:
			rowErrs = append(rowErrs, ingest.RowError{
				RowNumber: row.Number,
				Key:       entry.DistributorCode,
				Message:   fmt.Sprintf("anchor %s differs from batch anchor %s, one anchor per file", entry.AnchorID, anchorID),
			})
			continue
		}
		entries = append(entries, *entry)
	}
	if len(rowErrs) > 0 {
		s.observe(useCaseCreditLimits, outcomeRejected, start)
		s.metrics.CountRows(useCaseCreditLimits, "invalid", len(rowErrs))
		return nil, &ingest.BatchRowErrors{Rows: rowErrs}
	}
	if len(entries) == 0 {
		s.observe(useCaseCreditLimits, outcomeRejected, start)
		return nil, fmt.Errorf("reconcile: credit limit file has no data rows")
	}

	// Rows are written with exposure derived from the invoice ledger as it
	// stands, then re-derived under each distributor's lock once the snapshot
	// is in. An invoice admitted while the snapshot is being built lands in
	// the post-replace pass.
	for i := range entries {
		e := &entries[i]
		pending, err := s.invoices.SumOutstanding(ctx, anchorID, e.DistributorCode)
		if err != nil {
			s.observe(useCaseCreditLimits, outcomeRejected, start)
			return nil, fmt.Errorf("reconcile: exposure for %s/%s: %w", anchorID, e.DistributorCode, err)
		}
		derived := creditledger.DeriveFrom(e.AvailableLimit, e.Overdue, pending)
		e.PendingInvoices = derived.PendingInvoices
		e.CurrentAvailable = derived.CurrentAvailable
		e.BillingStatus = derived.BillingStatus
	}

	if err := s.credits.ReplaceForAnchor(ctx, anchorID, entries); err != nil {
		s.observe(useCaseCreditLimits, outcomeRejected, start)
		return nil, err
	}

	for i := range entries {
		code := entries[i].DistributorCode
		if _, err := s.RecomputeExposure(ctx, anchorID, code); err != nil {
			s.log.Error("exposure recompute after credit refresh failed",
				"anchor_id", anchorID, "distributor_code", code, "error", err)
		}
	}

	s.observe(useCaseCreditLimits, outcomeApplied, start)
	s.metrics.CountRows(useCaseCreditLimits, "replaced", len(entries))
	report := &ReplaceReport{BatchID: newBatchID(), AnchorID: anchorID, Total: len(rows), Replaced: len(entries)}
	s.log.Info("credit limit batch applied",
		"batch_id", report.BatchID, "anchor_id", anchorID, "rows", len(entries))
	return report, nil
}

func parseCreditLimitRow(row ingest.Row) (*creditledger.Entry, error) {
	entry := creditledger.Entry{
		CompanyName:      row.Raw("companyName"),
		City:             row.Raw("city"),
		State:            row.Raw("state"),
		Lender:           row.Raw("lender"),
		DistributorEmail: row.Raw("distributorEmail"),
	}

	code, ok := row.Value("distributorCode")
	if !ok {
		return nil, fmt.Errorf("missing distributorCode")
	}
	entry.DistributorCode = code

	anchorID, ok := row.Value("anchorId")
	if !ok {
		return nil, fmt.Errorf("missing anchorId")
	}
	entry.AnchorID = anchorID

	fundingType, err := creditledger.ParseFundingType(row.Raw("fundingType"))
	if err != nil {
		return nil, err
	}
	entry.FundingType = fundingType

	phone := row.Raw("distributorPhone")
	if !ingest.ValidPhone(phone) {
		return nil, fmt.Errorf("invalid distributorPhone %q", phone)
	}
	entry.DistributorPhone = phone

	expiry, err := ingest.ParseDate(row.Raw("limitExpiryDate"), ingest.DateShort)
	if err != nil {
		return nil, err
	}
	entry.LimitExpiryDate = expiry

	amounts := []struct {
		field string
		dst   *decimal.Decimal
	}{
		{"sanctionLimit", &entry.SanctionLimit},
		{"operativeLimit", &entry.OperativeLimit},
		{"utilisedLimit", &entry.UtilisedLimit},
		{"availableLimit", &entry.AvailableLimit},
		{"overdue", &entry.Overdue},
	}
	for _, a := range amounts {
		v, err := ingest.ParseAmount(row.Raw(a.field))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.field, err)
		}
		*a.dst = v
	}
	return &entry, nil
}
