package invoiceledger

import (
	"context"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// RepositoryPort defines the data access the query service needs.
type RepositoryPort interface {
	GetByNumber(ctx context.Context, anchorID, invoiceNumber string) (*Entry, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, int, error)
	SetPDFURL(ctx context.Context, anchorID, invoiceNumber, url string) error
}

// Service handles invoice ledger queries with role scoping.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetEntry returns one invoice by its natural key.
func (s *Service) GetEntry(ctx context.Context, anchorID, invoiceNumber string) (*Entry, error) {
	return s.repo.GetByNumber(ctx, anchorID, invoiceNumber)
}

// ListEntries returns invoices the caller is allowed to see.
func (s *Service) ListEntries(ctx context.Context, id shared.Identity, filter ListFilter) ([]Entry, shared.Pagination, error) {
	scope, err := id.Scope()
	if err != nil {
		return nil, shared.Pagination{}, shared.ErrForbidden
	}
	if scope.AnchorID != "" {
		filter.AnchorID = scope.AnchorID
	}
	if scope.DistributorPhone != "" {
		filter.DistributorPhone = scope.DistributorPhone
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// AttachPDF stores the object URL of an uploaded invoice PDF.
func (s *Service) AttachPDF(ctx context.Context, anchorID, invoiceNumber, url string) error {
	return s.repo.SetPDFURL(ctx, anchorID, invoiceNumber, url)
}
