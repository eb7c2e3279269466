package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline/internal/creditledger"
	"github.com/ledgerline/ledgerline/internal/ingest"
	"github.com/ledgerline/ledgerline/internal/onboard"
)

var onboardingFields = []string{
	"anchorId", "companyName", "distributorCode", "distributorPhone",
	"distributorEmail", "city", "state", "lender", "sanctionLimit",
	"fundingType", "status", "limitLiveDate", "limitExpiryDate",
}

// IngestOnboarding applies an onboarding file as a non-destructive upsert
// keyed by (anchorId, distributorCode). Any header mismatch, in-batch
// duplicate or bad row rejects the whole batch; nothing is written.
func (s *Service) IngestOnboarding(ctx context.Context, rows []ingest.Row) (*OnboardingReport, error) {
	start := time.Now()
	rows = ingest.DropEmptyRows(rows)

	if err := ingest.ValidateHeader(rows, onboardingFields, ingest.HeaderStrict); err != nil {
		s.observe(useCaseOnboarding, outcomeRejected, start)
		return nil, err
	}
	if err := ingest.CheckDuplicateKeys(rows, "distributorCode"); err != nil {
		s.observe(useCaseOnboarding, outcomeRejected, start)
		return nil, err
	}

	entries := make([]onboard.Entry, 0, len(rows))
	var rowErrs []ingest.RowError
	for _, row := range rows {
		entry, err := parseOnboardingRow(row)
		if err != nil {
			code, _ := row.Value("distributorCode")
			rowErrs = append(rowErrs, ingest.RowError{RowNumber: row.Number, Key: code, Message: err.Error()})
			continue
		}
		entries = append(entries, *entry)
	}
	if len(rowErrs) > 0 {
		s.observe(useCaseOnboarding, outcomeRejected, start)
		s.metrics.CountRows(useCaseOnboarding, "invalid", len(rowErrs))
		return nil, &ingest.BatchRowErrors{Rows: rowErrs}
	}

	upserted, err := s.onboards.UpsertBatch(ctx, entries)
	if err != nil {
		s.observe(useCaseOnboarding, outcomeRejected, start)
		return nil, err
	}

	s.observe(useCaseOnboarding, outcomeApplied, start)
	s.metrics.CountRows(useCaseOnboarding, "upserted", upserted)
	report := &OnboardingReport{BatchID: newBatchID(), Total: len(rows), Upserted: upserted}
	s.log.Info("onboarding batch applied", "batch_id", report.BatchID, "rows", upserted)
	return report, nil
}

func parseOnboardingRow(row ingest.Row) (*onboard.Entry, error) {
	entry := onboard.Entry{
		CompanyName:      row.Raw("companyName"),
		City:             row.Raw("city"),
		State:            row.Raw("state"),
		DistributorEmail: row.Raw("distributorEmail"),
	}

	anchorID, ok := row.Value("anchorId")
	if !ok {
		return nil, fmt.Errorf("missing anchorId")
	}
	entry.AnchorID = anchorID

	code, ok := row.Value("distributorCode")
	if !ok {
		return nil, fmt.Errorf("missing distributorCode")
	}
	entry.DistributorCode = code

	phone := row.Raw("distributorPhone")
	if !ingest.ValidPhone(phone) {
		return nil, fmt.Errorf("invalid distributorPhone %q", phone)
	}
	entry.DistributorPhone = phone

	entry.Lender = row.Raw("lender")

	sanction, err := ingest.ParseAmount(row.Raw("sanctionLimit"))
	if err != nil {
		return nil, fmt.Errorf("sanctionLimit: %w", err)
	}
	entry.SanctionLimit = sanction

	fundingType, err := creditledger.ParseFundingType(row.Raw("fundingType"))
	if err != nil {
		return nil, err
	}
	entry.FundingType = fundingType

	status, err := onboard.ParseStatus(row.Raw("status"))
	if err != nil {
		return nil, err
	}
	entry.Status = status

	if raw, ok := row.Value("limitLiveDate"); ok {
		t, err := ingest.ParseDate(raw, ingest.DateLong)
		if err != nil {
			return nil, err
		}
		entry.LimitLiveDate = &t
	}
	if raw, ok := row.Value("limitExpiryDate"); ok {
		t, err := ingest.ParseDate(raw, ingest.DateLong)
		if err != nil {
			return nil, err
		}
		entry.LimitExpiryDate = &t
	}
	return &entry, nil
}
