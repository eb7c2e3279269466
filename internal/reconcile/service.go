// Package reconcile drives the four ingestion use cases that mutate the
// ledgers: onboarding upserts, credit-limit refreshes, invoice creation and
// settlement files. It owns the exposure recomputation that keeps the credit
// ledger's derived fields consistent with the invoice ledger.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/creditledger"
	"github.com/ledgerline/ledgerline/internal/invoiceledger"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/onboard"
)

// OnboardStore is the onboarding persistence the pipeline writes to.
type OnboardStore interface {
	UpsertBatch(ctx context.Context, entries []onboard.Entry) (int, error)
}

// CreditStore is the credit ledger persistence the pipeline reads and writes.
type CreditStore interface {
	Get(ctx context.Context, anchorID, distributorCode string) (*creditledger.Entry, error)
	ReplaceForAnchor(ctx context.Context, anchorID string, entries []creditledger.Entry) error
	UpdateDerived(ctx context.Context, anchorID, distributorCode string, d creditledger.Derived) error
}

// InvoiceStore is the invoice ledger persistence the pipeline reads and
// writes.
type InvoiceStore interface {
	Create(ctx context.Context, e invoiceledger.Entry) (*invoiceledger.Entry, error)
	GetByNumber(ctx context.Context, anchorID, invoiceNumber string) (*invoiceledger.Entry, error)
	ExistingNumbers(ctx context.Context, anchorID string, numbers []string) (map[string]bool, error)
	SumOutstanding(ctx context.Context, anchorID, distributorCode string) (decimal.Decimal, error)
	ApplySettlements(ctx context.Context, changes []invoiceledger.SettlementChange) (updated, notFound []string, failed []invoiceledger.SettlementFailure, err error)
}

// MembershipChecker answers whitelist membership, usually through the cached
// directory.
type MembershipChecker interface {
	IsWhitelisted(ctx context.Context, distributorCode string) (bool, error)
}

// Metric label values per use case.
const (
	useCaseOnboarding   = "onboarding"
	useCaseCreditLimits = "credit_limits"
	useCaseInvoices     = "invoices"
	useCaseSettlement   = "settlement"

	outcomeApplied  = "applied"
	outcomeRejected = "rejected"
)

// Service coordinates the ingestion pipeline.
type Service struct {
	onboards    OnboardStore
	credits     CreditStore
	invoices    InvoiceStore
	membership  MembershipChecker
	locks       *DistributorLocks
	log         *slog.Logger
	metrics     *observability.Metrics
	maxParallel int
}

// NewService wires the ingestion pipeline. maxParallel bounds concurrent
// per-row work in the invoice creation use case; values below one mean
// sequential.
func NewService(
	onboards OnboardStore,
	credits CreditStore,
	invoices InvoiceStore,
	membership MembershipChecker,
	log *slog.Logger,
	metrics *observability.Metrics,
	maxParallel int,
) *Service {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Service{
		onboards:    onboards,
		credits:     credits,
		invoices:    invoices,
		membership:  membership,
		locks:       NewDistributorLocks(),
		log:         log,
		metrics:     metrics,
		maxParallel: maxParallel,
	}
}

func (s *Service) observe(useCase, outcome string, start time.Time) {
	s.metrics.ObserveBatch(useCase, outcome, time.Since(start))
}
