package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline/internal/eligibility"
	"github.com/ledgerline/ledgerline/internal/ingest"
	"github.com/ledgerline/ledgerline/internal/invoiceledger"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Settlement files must carry the invoice key; every other recognized column
// is optional and bank-side extras are ignored.
var settlementRequiredFields = []string{"invoiceNumber"}

// ApplySettlementFile applies a settlement export best-effort: each row is an
// independent conditional update on the invoice it names. Rows with no
// updatable field are skipped, unknown invoice numbers are reported, and a
// bad row never blocks its neighbors. Re-applying the same file converges to
// the same ledger state.
func (s *Service) ApplySettlementFile(ctx context.Context, anchorID string, rows []ingest.Row) (*SettlementReport, error) {
	start := time.Now()
	rows = ingest.DropEmptyRows(rows)

	if err := ingest.ValidateHeader(rows, settlementRequiredFields, ingest.HeaderAllowExtra); err != nil {
		s.observe(useCaseSettlement, outcomeRejected, start)
		return nil, err
	}
	if err := ingest.CheckDuplicateKeys(rows, "invoiceNumber"); err != nil {
		s.observe(useCaseSettlement, outcomeRejected, start)
		return nil, err
	}

	report := &SettlementReport{BatchID: newBatchID(), Total: len(rows)}
	var changes []invoiceledger.SettlementChange
	rowNumbers := make(map[string]int)
	touched := make(map[string]bool)
	var touchedOrder []string

	for _, row := range rows {
		number, ok := row.Value("invoiceNumber")
		if !ok {
			report.Failures = append(report.Failures, ingest.RowError{
				RowNumber: row.Number, Message: "missing invoiceNumber",
			})
			continue
		}

		change, err := parseSettlementRow(anchorID, number, row)
		if err != nil {
			report.Failures = append(report.Failures, ingest.RowError{
				RowNumber: row.Number, Key: number, Message: err.Error(),
			})
			continue
		}
		if !change.HasUpdates() {
			report.Skipped = append(report.Skipped, number)
			continue
		}

		invoice, err := s.invoices.GetByNumber(ctx, anchorID, number)
		if errors.Is(err, shared.ErrNotFound) {
			report.NotFound = append(report.NotFound, number)
			continue
		}
		if err != nil {
			report.Failures = append(report.Failures, ingest.RowError{
				RowNumber: row.Number, Key: number, Message: err.Error(),
			})
			continue
		}
		change.DistributorCode = invoice.DistributorCode

		if change.Status != nil {
			whitelisted, err := s.membership.IsWhitelisted(ctx, invoice.DistributorCode)
			if err != nil {
				report.Failures = append(report.Failures, ingest.RowError{
					RowNumber: row.Number, Key: number, Message: fmt.Sprintf("whitelist check: %v", err),
				})
				continue
			}
			change.EmailStatus = eligibility.OnSettlementStatus(whitelisted, *change.Status)
		}

		changes = append(changes, *change)
		rowNumbers[number] = row.Number
		key := anchorID + "|" + invoice.DistributorCode
		if !touched[key] {
			touched[key] = true
			touchedOrder = append(touchedOrder, invoice.DistributorCode)
		}
	}

	if len(changes) > 0 {
		updated, notFound, failed, err := s.invoices.ApplySettlements(ctx, changes)
		if err != nil {
			s.observe(useCaseSettlement, outcomeRejected, start)
			return nil, err
		}
		report.Updated = len(updated)
		report.NotFound = append(report.NotFound, notFound...)
		for _, fail := range failed {
			report.Failures = append(report.Failures, ingest.RowError{
				RowNumber: rowNumbers[fail.InvoiceNumber],
				Key:       fail.InvoiceNumber,
				Message:   fail.Message,
			})
		}
	}

	// Exposure recompute is best-effort per distributor: one failure is
	// surfaced but the rest still run.
	for _, code := range touchedOrder {
		if _, err := s.RecomputeExposure(ctx, anchorID, code); err != nil {
			s.log.Error("exposure recompute after settlement failed",
				"anchor_id", anchorID, "distributor_code", code, "error", err)
			continue
		}
		report.Recomputes++
	}

	s.observe(useCaseSettlement, outcomeApplied, start)
	s.metrics.CountRows(useCaseSettlement, "updated", report.Updated)
	s.metrics.CountRows(useCaseSettlement, "skipped", len(report.Skipped))
	s.metrics.CountRows(useCaseSettlement, "not_found", len(report.NotFound))
	s.metrics.CountRows(useCaseSettlement, "failed", len(report.Failures))
	s.log.Info("settlement batch applied",
		"batch_id", report.BatchID, "anchor_id", anchorID,
		"updated", report.Updated, "skipped", len(report.Skipped),
		"not_found", len(report.NotFound), "failed", len(report.Failures))
	return report, nil
}

// parseSettlementRow extracts the updatable fields present in the row. A
// null-like cell means "leave untouched"; settlement files cannot unset a
// UTR once written.
func parseSettlementRow(anchorID, number string, row ingest.Row) (*invoiceledger.SettlementChange, error) {
	change := &invoiceledger.SettlementChange{AnchorID: anchorID, InvoiceNumber: number}

	if raw, ok := row.Value("loanAmount"); ok {
		amount, err := ingest.ParseAmount(raw)
		if err != nil {
			return nil, err
		}
		change.LoanAmount = &amount
	}
	if raw, ok := row.Value("loanDisbursementDate"); ok {
		t, err := ingest.ParseDate(raw, ingest.DateShort)
		if err != nil {
			return nil, err
		}
		change.LoanDisbursementDate = &t
	}
	if utr, ok := row.Value("utr"); ok {
		change.UTR = &utr
	}
	if raw, ok := row.Value("status"); ok {
		status, err := invoiceledger.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		change.Status = &status
	}
	return change, nil
}
