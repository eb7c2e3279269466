package onboard

import (
	"context"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// RepositoryPort defines data access methods for onboarding records.
type RepositoryPort interface {
	Get(ctx context.Context, anchorID, distributorCode string) (*Entry, error)
	UpsertBatch(ctx context.Context, entries []Entry) (int, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, int, error)
}

// Service handles onboarding queries with role scoping.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetEntry returns one onboarding record.
func (s *Service) GetEntry(ctx context.Context, anchorID, distributorCode string) (*Entry, error) {
	return s.repo.Get(ctx, anchorID, distributorCode)
}

// ListEntries returns onboarding records the caller is allowed to see.
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
