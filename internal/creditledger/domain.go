// Package creditledger maintains one credit ledger entry per distributor per
// anchor: the limit tiers loaded from periodic refresh files plus the derived
// exposure fields that must track the invoice ledger.
package creditledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BillingStatus is the coarse health flag derived from current available and
// overdue.
type BillingStatus string

const (
	BillingPositive BillingStatus = "positive"
	BillingNegative BillingStatus = "negative"
)

// ParseBillingStatus validates a raw billing status value.
func ParseBillingStatus(raw string) (BillingStatus, error) {
	switch BillingStatus(raw) {
	case BillingPositive, BillingNegative:
		return BillingStatus(raw), nil
	}
	return "", fmt.Errorf("creditledger: invalid billing status %q", raw)
}

// FundingType distinguishes open from close financing arrangements.
type FundingType string

const (
	FundingOpen  FundingType = "open"
	FundingClose FundingType = "close"
)

// ParseFundingType validates a raw funding type value.
func ParseFundingType(raw string) (FundingType, error) {
	switch FundingType(raw) {
	case FundingOpen, FundingClose:
		return FundingType(raw), nil
	}
	return "", fmt.Errorf("creditledger: invalid funding type %q", raw)
}

// Entry is one distributor's credit ledger row. The natural key is
// (AnchorID, DistributorCode); a distributor code can recur under different
// anchors.
type Entry struct {
	ID               int64           `json:"id"`
	CompanyName      string          `json:"companyName"`
	DistributorCode  string          `json:"distributorCode"`
	City             string          `json:"city"`
	State            string          `json:"state"`
	Lender           string          `json:"lender"`
	LimitExpiryDate  time.Time       `json:"limitExpiryDate"`
	SanctionLimit    decimal.Decimal `json:"sanctionLimit"`
	OperativeLimit   decimal.Decimal `json:"operativeLimit"`
	UtilisedLimit    decimal.Decimal `json:"utilisedLimit"`
	AvailableLimit   decimal.Decimal `json:"availableLimit"`
	Overdue          decimal.Decimal `json:"overdue"`
	PendingInvoices  decimal.Decimal `json:"pendingInvoices"`
	CurrentAvailable decimal.Decimal `json:"currentAvailable"`
	BillingStatus    BillingStatus   `json:"billingStatus"`
	AnchorID         string          `json:"anchorId"`
	FundingType      FundingType     `json:"fundingType"`
	DistributorPhone string          `json:"distributorPhone"`
	DistributorEmail string          `json:"distributorEmail"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// HasOverdue reports whether any amount is currently past due. A positive
// overdue blocks email eligibility regardless of available limit.
func (e *Entry) HasOverdue() bool {
	return e.Overdue.IsPositive()
}

// ComputeBillingStatus applies the ledger invariant: negative iff current
// available is below zero or any amount is overdue.
func ComputeBillingStatus(currentAvailable, overdue decimal.Decimal) BillingStatus {
	if currentAvailable.IsNegative() || overdue.IsPositive() {
		return BillingNegative
	}
	return BillingPositive
}

// Derived bundles the three fields recomputed whenever a distributor's
// outstanding invoice set changes.
type Derived struct {
	PendingInvoices  decimal.Decimal
	CurrentAvailable decimal.Decimal
	BillingStatus    BillingStatus
}

// DeriveFrom recomputes the derived fields from the latest exposure sum.
func DeriveFrom(availableLimit, overdue, pendingInvoices decimal.Decimal) Derived {
	currentAvailable := availableLimit.Sub(pendingInvoices)
	return Derived{
		PendingInvoices:  pendingInvoices,
		CurrentAvailable: currentAvailable,
		BillingStatus:    ComputeBillingStatus(currentAvailable, overdue),
	}
}

// ListFilter narrows credit ledger listings.
type ListFilter struct {
	AnchorID         string
	DistributorPhone string
	CompanyName      string
	DistributorCode  string
	Page             int
	PerPage          int
}
