// Package onboard tracks distributor onboarding records: the contact and
// lifecycle details captured before a distributor receives credit limits.
package onboard

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/creditledger"
)

// Status is the onboarding lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus validates an onboarding status token.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusActive, StatusInactive:
		return Status(raw), nil
	}
	return "", fmt.Errorf("onboard: unknown status %q", raw)
}

// Entry is one distributor onboarding record, keyed by anchor and
// distributor code. SanctionLimit and Lender are the sanctioned terms the
// refresh file carries; the operative limits live in the credit ledger.
type Entry struct {
	ID               int64                    `json:"id"`
	AnchorID         string                   `json:"anchorId"`
	CompanyName      string                   `json:"companyName"`
	DistributorCode  string                   `json:"distributorCode"`
	DistributorPhone string                   `json:"distributorPhone"`
	DistributorEmail string                   `json:"distributorEmail"`
	City             string                   `json:"city"`
	State            string                   `json:"state"`
	Lender           string                   `json:"lender"`
	SanctionLimit    decimal.Decimal          `json:"sanctionLimit"`
	FundingType      creditledger.FundingType `json:"fundingType"`
	Status           Status                   `json:"status"`
	LimitLiveDate    *time.Time               `json:"limitLiveDate,omitempty"`
	LimitExpiryDate  *time.Time               `json:"limitExpiryDate,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

// ListFilter narrows onboarding listings.
type ListFilter struct {
	AnchorID         string
	CompanyName      string
	DistributorCode  string
	DistributorPhone string
	Status           Status
	Page             int
	PerPage          int
}
