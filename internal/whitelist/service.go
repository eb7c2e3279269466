package whitelist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerline/ledgerline/internal/invoiceledger"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// RepositoryPort is what the service needs from persistence.
type RepositoryPort interface {
	Get(ctx context.Context, distributorCode string) (*Entry, error)
	UpsertBatch(ctx context.Context, entries []Entry) (int, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, int, error)
}

// InvoiceReader lists invoices by email status for the eligible summary view.
type InvoiceReader interface {
	ListAllByEmailStatus(ctx context.Context, emailStatus invoiceledger.EmailStatus) ([]invoiceledger.Entry, error)
}

// Service exposes whitelist reads and the non-destructive batch upsert.
type Service struct {
	repo      RepositoryPort
	invoices  InvoiceReader
	directory *Directory
	log       *slog.Logger
}

// NewService wires a whitelist service.
func NewService(repo RepositoryPort, invoices InvoiceReader, directory *Directory, log *slog.Logger) *Service {
	return &Service{repo: repo, invoices: invoices, directory: directory, log: log}
}

// GetEntry fetches a single whitelist entry by distributor code.
func (s *Service) GetEntry(ctx context.Context, distributorCode string) (*Entry, error) {
	return s.repo.Get(ctx, distributorCode)
}

// ListEntries returns a page of whitelist entries.
func (s *Service) ListEntries(ctx context.Context, filter ListFilter) ([]Entry, shared.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Upsert applies a validated batch and invalidates cached membership for the
// touched distributors.
func (s *Service) Upsert(ctx context.Context, entries []Entry) (int, error) {
	n, err := s.repo.UpsertBatch(ctx, entries)
	if err != nil {
		return 0, err
	}
	codes := make([]string, len(entries))
	for i, e := range entries {
		codes[i] = e.DistributorCode
	}
	if s.directory != nil {
		s.directory.Invalidate(ctx, codes)
	}
	s.log.Info("whitelist batch upserted", "rows", n)
	return n, nil
}

// EligibleSummary aggregates currently eligible invoices for one distributor.
type EligibleSummary struct {
	DistributorCode  string                `json:"distributorCode"`
	CompanyName      string                `json:"companyName"`
	DistributorEmail string                `json:"distributorEmail"`
	Lender           string                `json:"lender"`
	EligibleInvoices int                   `json:"eligibleInvoices"`
	Invoices         []invoiceledger.Entry `json:"invoices"`
}

// EligibleSummaries groups eligible invoices by distributor and joins the
// whitelist contact details needed to draft financing emails.
func (s *Service) EligibleSummaries(ctx context.Context) ([]EligibleSummary, error) {
	invoices, err := s.invoices.ListAllByEmailStatus(ctx, invoiceledger.EmailEligible)
	if err != nil {
		return nil, fmt.Errorf("whitelist: eligible invoices: %w", err)
	}

	byCode := make(map[string][]invoiceledger.Entry)
	order := []string{}
	for _, inv := range invoices {
		if _, seen := byCode[inv.DistributorCode]; !seen {
			order = append(order, inv.DistributorCode)
		}
		byCode[inv.DistributorCode] = append(byCode[inv.DistributorCode], inv)
	}

	summaries := make([]EligibleSummary, 0, len(order))
	for _, code := range order {
		sum := EligibleSummary{
			DistributorCode:  code,
			EligibleInvoices: len(byCode[code]),
			Invoices:         byCode[code],
		}
		entry, err := s.repo.Get(ctx, code)
		if err == nil {
			sum.CompanyName = entry.CompanyName
			sum.DistributorEmail = entry.DistributorEmail
			sum.Lender = entry.Lender
		} else {
			s.log.Warn("eligible invoice without whitelist entry", "distributor_code", code, "error", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}
