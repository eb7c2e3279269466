package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrLedgerNotFound indicates a distributor has no credit ledger entry.
	// Eligibility callers must treat this as a hard failure, never as eligible.
	ErrLedgerNotFound = errors.New("credit ledger entry not found")
	// ErrForbidden indicates the caller's role does not permit the operation.
	ErrForbidden = errors.New("forbidden")
)
