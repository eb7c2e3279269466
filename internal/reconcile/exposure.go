package reconcile

import (
	"context"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/creditledger"
)

// RecomputeExposure re-derives a distributor's pending invoices, current
// available and billing status from the invoice ledger and persists them.
// The distributor lock makes the read-sum-write sequence atomic with respect
// to other recomputes for the same distributor.
func (s *Service) RecomputeExposure(ctx context.Context, anchorID, distributorCode string) (creditledger.Derived, error) {
	unlock := s.locks.Lock(anchorID, distributorCode)
	defer unlock()
	return s.recomputeLocked(ctx, anchorID, distributorCode)
}

// recomputeLocked is the lock-free body, for callers already holding the
// distributor lock.
func (s *Service) recomputeLocked(ctx context.Context, anchorID, distributorCode string) (creditledger.Derived, error) {
	pending, err := s.invoices.SumOutstanding(ctx, anchorID, distributorCode)
	if err != nil {
		return creditledger.Derived{}, fmt.Errorf("reconcile: exposure sum for %s/%s: %w", anchorID, distributorCode, err)
	}

	entry, err := s.credits.Get(ctx, anchorID, distributorCode)
	if err != nil {
		return creditledger.Derived{}, fmt.Errorf("reconcile: credit entry for %s/%s: %w", anchorID, distributorCode, err)
	}

	derived := creditledger.DeriveFrom(entry.AvailableLimit, entry.Overdue, pending)
	if err := s.credits.UpdateDerived(ctx, anchorID, distributorCode, derived); err != nil {
		return creditledger.Derived{}, fmt.Errorf("reconcile: persist derived for %s/%s: %w", anchorID, distributorCode, err)
	}

	s.metrics.CountExposureRun()
	return derived, nil
}
