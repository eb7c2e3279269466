// Package invoiceledger holds one entry per financed invoice and computes the
// pending exposure a distributor's outstanding invoices represent.
package invoiceledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusYetToProcess        Status = "yetToProcess"
	StatusInProgress          Status = "inProgress"
	StatusProcessed           Status = "processed"
	StatusPendingWithCustomer Status = "pendingWithCustomer"
	StatusPendingWithLender   Status = "pendingWithLender"
	StatusNotProcessed        Status = "notProcessed"
)

// ParseStatus validates a canonicalized status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusYetToProcess, StatusInProgress, StatusProcessed,
		StatusPendingWithCustomer, StatusPendingWithLender, StatusNotProcessed:
		return Status(raw), nil
	}
	return "", fmt.Errorf("invoiceledger: invalid status %q", raw)
}

// EmailStatus gates automated customer communication for an invoice.
type EmailStatus string

const (
	EmailNotEligible       EmailStatus = "notEligible"
	EmailEligible          EmailStatus = "eligible"
	EmailSent              EmailStatus = "sent"
	EmailOverdue           EmailStatus = "overdue"
	EmailInsufficientLimit EmailStatus = "insufficientAvailableLimit"
)

// ParseEmailStatus validates a raw email status value.
func ParseEmailStatus(raw string) (EmailStatus, error) {
	switch EmailStatus(raw) {
	case EmailNotEligible, EmailEligible, EmailSent, EmailOverdue, EmailInsufficientLimit:
		return EmailStatus(raw), nil
	}
	return "", fmt.Errorf("invoiceledger: invalid email status %q", raw)
}

// Entry is one financed invoice. The natural key is (AnchorID, InvoiceNumber).
type Entry struct {
	ID                   int64           `json:"id"`
	CompanyName          string          `json:"companyName"`
	DistributorCode      string          `json:"distributorCode"`
	BeneficiaryName      string          `json:"beneficiaryName"`
	BeneficiaryAccNo     string          `json:"beneficiaryAccNo"`
	BankName             string          `json:"bankName"`
	IFSCCode             string          `json:"ifscCode"`
	Branch               string          `json:"branch"`
	InvoiceNumber        string          `json:"invoiceNumber"`
	InvoiceAmount        decimal.Decimal `json:"invoiceAmount"`
	InvoiceDate          time.Time       `json:"invoiceDate"`
	LoanAmount           decimal.Decimal `json:"loanAmount"`
	LoanDisbursementDate *time.Time      `json:"loanDisbursementDate,omitempty"`
	UTR                  string          `json:"utr"`
	FundingType          string          `json:"fundingType"`
	Status               Status          `json:"status"`
	EmailStatus          EmailStatus     `json:"emailStatus"`
	AnchorID             string          `json:"anchorId"`
	DistributorPhone     string          `json:"distributorPhone"`
	DistributorEmail     string          `json:"distributorEmail"`
	InvoicePDFURL        string          `json:"invoicePdfUrl,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// Settled reports whether the invoice carries a real settlement reference.
// Settlement files write "NA", "-" or "0" into the UTR column for unpaid
// invoices, so presence is judged against the null-like token table.
func (e *Entry) Settled() bool {
	return !shared.IsNullLike(e.UTR)
}

// Outstanding reports whether the invoice counts toward pending exposure:
// not cancelled and not yet settled.
func (e *Entry) Outstanding() bool {
	return e.Status != StatusNotProcessed && !e.Settled()
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	AnchorID         string
	DistributorPhone string
	DistributorCode  string
	CompanyName      string
	Status           Status
	EmailStatus      EmailStatus
	Page             int
	PerPage          int
}
