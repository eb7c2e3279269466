// Package whitelist holds the directory of distributors authorized for
// automated financing and emailing. Absence from this set is meaningful: it
// gates eligibility.
package whitelist

import "time"

// Entry is one authorized distributor.
type Entry struct {
	ID               int64     `json:"id"`
	CompanyName      string    `json:"companyName"`
	DistributorCode  string    `json:"distributorCode"`
	DistributorPhone string    `json:"distributorPhone"`
	DistributorEmail string    `json:"distributorEmail"`
	Lender           string    `json:"lender"`
	LenderEmail      string    `json:"lenderEmail"`
	AnchorID         string    `json:"anchorId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ListFilter narrows whitelist listings.
type ListFilter struct {
	CompanyName     string
	DistributorCode string
	Page            int
	PerPage         int
}
