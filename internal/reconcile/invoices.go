package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/ledgerline/internal/eligibility"
	"github.com/ledgerline/ledgerline/internal/ingest"
	"github.com/ledgerline/ledgerline/internal/invoiceledger"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// CreateInvoices applies an invoice creation batch with partial success:
// in-batch duplicate invoice numbers reject the whole batch, already-known
// numbers are skipped, and each remaining draft is admitted independently.
// The eligibility gate runs per draft against the distributor's credit entry
// and the exposure fields are recomputed before the next draft for the same
// distributor is considered.
func (s *Service) CreateInvoices(ctx context.Context, anchorID string, drafts []invoiceledger.Entry) (*InvoiceReport, error) {
	start := time.Now()

	seen := make(map[string]bool, len(drafts))
	dup := make(map[string]bool)
	var dups []string
	numbers := make([]string, 0, len(drafts))
	for _, d := range drafts {
		if seen[d.InvoiceNumber] {
			if !dup[d.InvoiceNumber] {
				dup[d.InvoiceNumber] = true
				dups = append(dups, d.InvoiceNumber)
			}
			continue
		}
		seen[d.InvoiceNumber] = true
		numbers = append(numbers, d.InvoiceNumber)
	}
	if len(dups) > 0 {
		s.observe(useCaseInvoices, outcomeRejected, start)
		return nil, &ingest.DuplicateKeyError{Field: "invoiceNumber", Keys: dups}
	}

	existing, err := s.invoices.ExistingNumbers(ctx, anchorID, numbers)
	if err != nil {
		s.observe(useCaseInvoices, outcomeRejected, start)
		return nil, err
	}

	report := &InvoiceReport{BatchID: newBatchID(), Total: len(drafts)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i, draft := range drafts {
		if existing[draft.InvoiceNumber] {
			report.Skipped = append(report.Skipped, draft.InvoiceNumber)
			continue
		}
		rowNumber := i + 1
		draft := draft
		g.Go(func() error {
			rowErr := s.admitInvoice(gctx, anchorID, &draft)
			mu.Lock()
			defer mu.Unlock()
			if rowErr != nil {
				report.Failures = append(report.Failures, ingest.RowError{
					RowNumber: rowNumber,
					Key:       draft.InvoiceNumber,
					Message:   rowErr.Error(),
				})
				return nil
			}
			report.Created++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.observe(useCaseInvoices, outcomeRejected, start)
		return nil, err
	}

	s.observe(useCaseInvoices, outcomeApplied, start)
	s.metrics.CountRows(useCaseInvoices, "created", report.Created)
	s.metrics.CountRows(useCaseInvoices, "skipped", len(report.Skipped))
	s.metrics.CountRows(useCaseInvoices, "failed", len(report.Failures))
	s.log.Info("invoice batch applied",
		"batch_id", report.BatchID, "anchor_id", anchorID,
		"created", report.Created, "skipped", len(report.Skipped), "failed", len(report.Failures))
	return report, nil
}

// admitInvoice runs the eligibility gate, persists the draft and recomputes
// the distributor's exposure, all under the distributor lock so concurrent
// drafts for one distributor see each other's consumption of the limit.
// Non-whitelisted drafts never reach the overdue or headroom checks, so they
// are recorded without consulting the credit ledger at all.
func (s *Service) admitInvoice(ctx context.Context, anchorID string, draft *invoiceledger.Entry) error {
	unlock := s.locks.Lock(anchorID, draft.DistributorCode)
	defer unlock()

	whitelisted, err := s.membership.IsWhitelisted(ctx, draft.DistributorCode)
	if err != nil {
		return fmt.Errorf("whitelist check: %w", err)
	}

	input := eligibility.Input{Whitelisted: whitelisted, LoanAmount: draft.LoanAmount}
	if whitelisted {
		credit, err := s.credits.Get(ctx, anchorID, draft.DistributorCode)
		if errors.Is(err, shared.ErrLedgerNotFound) {
			return fmt.Errorf("no credit ledger entry for distributor %s", draft.DistributorCode)
		}
		if err != nil {
			return fmt.Errorf("credit entry: %w", err)
		}
		input.Overdue = credit.Overdue
		input.Headroom = credit.CurrentAvailable
	}

	decision := eligibility.Decide(input)

	draft.AnchorID = anchorID
	draft.Status = decision.Status
	draft.EmailStatus = decision.EmailStatus
	if _, err := s.invoices.Create(ctx, *draft); err != nil {
		return err
	}

	if !whitelisted {
		// No credit ledger entry is required for these rows, so there are no
		// derived fields to refresh.
		return nil
	}
	if _, err := s.recomputeLocked(ctx, anchorID, draft.DistributorCode); err != nil {
		// The invoice is in; a failed recompute leaves stale derived fields
		// that the next recompute will correct. Surface it anyway.
		s.log.Error("exposure recompute after invoice create failed",
			"anchor_id", anchorID, "distributor_code", draft.DistributorCode,
			"invoice_number", draft.InvoiceNumber, "error", err)
	}
	return nil
}
