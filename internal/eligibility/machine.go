// Package eligibility decides whether an invoice may be auto-emailed to the
// customer and which lifecycle state that decision puts it in. The decision
// runs at invoice creation and again at email-send time.
package eligibility

import (
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/invoiceledger"
)

// Decision pairs the email gate outcome with the lifecycle state it implies.
type Decision struct {
	EmailStatus invoiceledger.EmailStatus
	Status      invoiceledger.Status
}

// Input carries everything the gate needs. Headroom is the distributor's
// current available limit with the candidate invoice itself excluded from
// exposure. Overdue and Headroom matter only when Whitelisted is set; the
// whitelist gate rejects other inputs before either is read, so those
// callers need no credit ledger entry.
type Input struct {
	Whitelisted bool
	Overdue     decimal.Decimal
	Headroom    decimal.Decimal
	LoanAmount  decimal.Decimal
}

// Decide evaluates the multi-factor gate in priority order: whitelist
// membership, then overdue state, then available headroom.
func Decide(in Input) Decision {
	if !in.Whitelisted {
		return Decision{EmailStatus: invoiceledger.EmailNotEligible, Status: invoiceledger.StatusYetToProcess}
	}
	if in.Overdue.IsPositive() {
		return Decision{EmailStatus: invoiceledger.EmailOverdue, Status: invoiceledger.StatusPendingWithCustomer}
	}
	if in.Headroom.GreaterThanOrEqual(in.LoanAmount) {
		return Decision{EmailStatus: invoiceledger.EmailEligible, Status: invoiceledger.StatusYetToProcess}
	}
	return Decision{EmailStatus: invoiceledger.EmailInsufficientLimit, Status: invoiceledger.StatusPendingWithCustomer}
}

// OnSent returns the transition applied after the email collaborator reports
// a successful send.
func OnSent() Decision {
	return Decision{EmailStatus: invoiceledger.EmailSent, Status: invoiceledger.StatusInProgress}
}

// OnSettlementStatus returns the email-status flip implied by a
// settlement-file lifecycle update, or nil when none applies. Only
// whitelisted distributors are ever flipped.
func OnSettlementStatus(whitelisted bool, status invoiceledger.Status) *invoiceledger.EmailStatus {
	if !whitelisted {
		return nil
	}
	switch status {
	case invoiceledger.StatusProcessed:
		es := invoiceledger.EmailSent
		return &es
	case invoiceledger.StatusNotProcessed:
		es := invoiceledger.EmailNotEligible
		return &es
	}
	return nil
}
