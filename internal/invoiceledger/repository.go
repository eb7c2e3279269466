package invoiceledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the invoice ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `
	id, company_name, distributor_code, beneficiary_name, beneficiary_acc_no,
	bank_name, ifsc_code, branch, invoice_number, invoice_amount, invoice_date,
	loan_amount, loan_disbursement_date, utr, funding_type, status, email_status,
	anchor_id, distributor_phone, distributor_email, invoice_pdf_url,
	created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var disbursed pgtype.Timestamptz
	var utr, pdfURL pgtype.Text
	err := row.Scan(
		&e.ID, &e.CompanyName, &e.DistributorCode, &e.BeneficiaryName, &e.BeneficiaryAccNo,
		&e.BankName, &e.IFSCCode, &e.Branch, &e.InvoiceNumber, &e.InvoiceAmount, &e.InvoiceDate,
		&e.LoanAmount, &disbursed, &utr, &e.FundingType, &e.Status, &e.EmailStatus,
		&e.AnchorID, &e.DistributorPhone, &e.DistributorEmail, &pdfURL,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invoiceledger: scan entry: %w", err)
	}
	if disbursed.Valid {
		e.LoanDisbursementDate = &disbursed.Time
	}
	e.UTR = utr.String
	e.InvoicePDFURL = pdfURL.String
	return &e, nil
}

// Create inserts a new invoice entry.
func (r *Repository) Create(ctx context.Context, e Entry) (*Entry, error) {
	query := `
		INSERT INTO invoice_ledger (
			company_name, distributor_code, beneficiary_name, beneficiary_acc_no,
			bank_name, ifsc_code, branch, invoice_number, invoice_amount, invoice_date,
			loan_amount, loan_disbursement_date, utr, funding_type, status, email_status,
			anchor_id, distributor_phone, distributor_email, invoice_pdf_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	var disbursed pgtype.Timestamptz
	if e.LoanDisbursementDate != nil {
		disbursed = pgtype.Timestamptz{Time: *e.LoanDisbursementDate, Valid: true}
	}

	err := r.pool.QueryRow(ctx, query,
		e.CompanyName, e.DistributorCode, e.BeneficiaryName, e.BeneficiaryAccNo,
		e.BankName, e.IFSCCode, e.Branch, e.InvoiceNumber, e.InvoiceAmount, e.InvoiceDate,
		e.LoanAmount, disbursed, e.UTR, e.FundingType, e.Status, e.EmailStatus,
		e.AnchorID, e.DistributorPhone, e.DistributorEmail, e.InvoicePDFURL,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invoiceledger: create %s: %w", e.InvoiceNumber, err)
	}
	return &e, nil
}

// GetByNumber fetches an invoice by its natural key.
func (r *Repository) GetByNumber(ctx context.Context, anchorID, invoiceNumber string) (*Entry, error) {
	query := `SELECT` + entryColumns + `
		FROM invoice_ledger
		WHERE anchor_id = $1 AND invoice_number = $2`
	return scanEntry(r.pool.QueryRow(ctx, query, anchorID, invoiceNumber))
}

// ExistingNumbers returns which of the given invoice numbers already exist
// under the anchor.
func (r *Repository) ExistingNumbers(ctx context.Context, anchorID string, numbers []string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT invoice_number FROM invoice_ledger WHERE anchor_id = $1 AND invoice_number = ANY($2)`,
		anchorID, numbers,
	)
	if err != nil {
		return nil, fmt.Errorf("invoiceledger: existing numbers: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("invoiceledger: scan number: %w", err)
		}
		existing[n] = true
	}
	return existing, rows.Err()
}

// SumOutstanding aggregates the loan amounts of a distributor's outstanding
// invoices: status other than notProcessed and UTR still null-like. Loan
// amount is used rather than invoice face value because the financed amount
// is what consumes the limit.
func (r *Repository) SumOutstanding(ctx context.Context, anchorID, distributorCode string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(loan_amount), 0)
		FROM invoice_ledger
		WHERE anchor_id = $1
		  AND distributor_code = $2
		  AND status <> $3
		  AND (utr IS NULL OR btrim(utr) = ANY($4))`,
		anchorID, distributorCode, StatusNotProcessed, shared.NullLikeTokens,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invoiceledger: sum outstanding: %w", err)
	}
	return total, nil
}

// ListByStatuses returns a distributor's invoices in any of the given
// lifecycle states.
func (r *Repository) ListByStatuses(ctx context.Context, anchorID, distributorCode string, statuses []Status) ([]Entry, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	rows, err := r.pool.Query(ctx, `SELECT`+entryColumns+`
		FROM invoice_ledger
		WHERE anchor_id = $1 AND distributor_code = $2 AND status = ANY($3)`,
		anchorID, distributorCode, values,
	)
	if err != nil {
		return nil, fmt.Errorf("invoiceledger: list by statuses: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

// ListByEmailStatus returns a distributor's invoices with the given email
// status, newest invoice date first.
func (r *Repository) ListByEmailStatus(ctx context.Context, distributorCode string, emailStatus EmailStatus) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+entryColumns+`
		FROM invoice_ledger
		WHERE distributor_code = $1 AND email_status = $2
		ORDER BY invoice_date DESC`,
		distributorCode, emailStatus,
	)
	if err != nil {
		return nil, fmt.Errorf("invoiceledger: list by email status: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

// ListAllByEmailStatus returns every invoice carrying the given email status,
// grouped by distributor for the eligible-summary view.
func (r *Repository) ListAllByEmailStatus(ctx context.Context, emailStatus EmailStatus) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+entryColumns+`
		FROM invoice_ledger
		WHERE email_status = $1
		ORDER BY distributor_code, invoice_date DESC`,
		emailStatus,
	)
	if err != nil {
		return nil, fmt.Errorf("invoiceledger: list all by email status: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

// SettlementChange is one conditional update keyed by invoice number. Nil
// fields are left untouched; applying the same change twice yields the same
// final row.
type SettlementChange struct {
	AnchorID             string
	InvoiceNumber        string
	DistributorCode      string
	LoanAmount           *decimal.Decimal
	LoanDisbursementDate *time.Time
	UTR                  *string
	Status               *Status
	EmailStatus          *EmailStatus
}

// HasUpdates reports whether the change touches any updatable field.
func (c SettlementChange) HasUpdates() bool {
	return c.LoanAmount != nil || c.LoanDisbursementDate != nil || c.UTR != nil || c.Status != nil
}

// SettlementFailure is one settlement row the database rejected.
type SettlementFailure struct {
	InvoiceNumber string
	Message       string
}

// ApplySettlements runs the changes as one batch of conditional updates.
// Unmatched invoice numbers and rejected rows are reported per invoice, not
// errored; a failure on one row does not abort the rest.
func (r *Repository) ApplySettlements(ctx context.Context, changes []SettlementChange) (updated, notFound []string, failed []SettlementFailure, err error) {
	batch := &pgx.Batch{}
	for _, c := range changes {
		set := []string{"updated_at = NOW()"}
		args := []any{c.AnchorID, c.InvoiceNumber}
		argNum := 3
		add := func(column string, value any) {
			set = append(set, fmt.Sprintf("%s = $%d", column, argNum))
			args = append(args, value)
			argNum++
		}
		if c.LoanAmount != nil {
			add("loan_amount", *c.LoanAmount)
		}
		if c.LoanDisbursementDate != nil {
			add("loan_disbursement_date", *c.LoanDisbursementDate)
		}
		if c.UTR != nil {
			add("utr", *c.UTR)
		}
		if c.Status != nil {
			add("status", *c.Status)
		}
		if c.EmailStatus != nil {
			add("email_status", *c.EmailStatus)
		}
		query := fmt.Sprintf(
			`UPDATE invoice_ledger SET %s WHERE anchor_id = $1 AND invoice_number = $2`,
			strings.Join(set, ", "),
		)
		batch.Queue(query, args...)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() {
		// A per-row failure already surfaces through failed; the close error
		// it causes must not reject the rows that did apply.
		if closeErr := results.Close(); closeErr != nil && err == nil && len(failed) == 0 {
			err = fmt.Errorf("invoiceledger: close batch: %w", closeErr)
		}
	}()

	for _, c := range changes {
		tag, execErr := results.Exec()
		if execErr != nil {
			failed = append(failed, SettlementFailure{InvoiceNumber: c.InvoiceNumber, Message: execErr.Error()})
			continue
		}
		if tag.RowsAffected() == 0 {
			notFound = append(notFound, c.InvoiceNumber)
		} else {
			updated = append(updated, c.InvoiceNumber)
		}
	}
	return updated, notFound, failed, nil
}

// SetStatusFields updates lifecycle and/or email status for one invoice.
func (r *Repository) SetStatusFields(ctx context.Context, anchorID, invoiceNumber string, status *Status, emailStatus *EmailStatus) error {
	set := []string{"updated_at = NOW()"}
	args := []any{anchorID, invoiceNumber}
	argNum := 3
	if status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *status)
		argNum++
	}
	if emailStatus != nil {
		set = append(set, fmt.Sprintf("email_status = $%d", argNum))
		args = append(args, *emailStatus)
	}
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE invoice_ledger SET %s WHERE anchor_id = $1 AND invoice_number = $2`,
		strings.Join(set, ", "),
	), args...)
	if err != nil {
		return fmt.Errorf("invoiceledger: set status fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetPDFURL stores the object-storage reference for an invoice PDF.
func (r *Repository) SetPDFURL(ctx context.Context, anchorID, invoiceNumber, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoice_ledger SET invoice_pdf_url = $3, updated_at = NOW()
		 WHERE anchor_id = $1 AND invoice_number = $2`,
		anchorID, invoiceNumber, url,
	)
	if err != nil {
		return fmt.Errorf("invoiceledger: set pdf url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns invoice entries matching the filter plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 1

	addEq := func(column, value string) {
		if value == "" {
			return
		}
		where += fmt.Sprintf(" AND %s = $%d", column, argNum)
		args = append(args, value)
		argNum++
	}
	addEq("anchor_id", filter.AnchorID)
	addEq("distributor_phone", filter.DistributorPhone)
	addEq("status", string(filter.Status))
	addEq("email_status", string(filter.EmailStatus))
	if filter.DistributorCode != "" {
		where += fmt.Sprintf(" AND distributor_code ILIKE $%d", argNum)
		args = append(args, "%"+filter.DistributorCode+"%")
		argNum++
	}
	if filter.CompanyName != "" {
		where += fmt.Sprintf(" AND company_name ILIKE $%d", argNum)
		args = append(args, "%"+filter.CompanyName+"%")
		argNum++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoice_ledger`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("invoiceledger: count: %w", err)
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := `SELECT` + entryColumns + ` FROM invoice_ledger` + where +
		fmt.Sprintf(" ORDER BY invoice_date DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceledger: list: %w", err)
	}
	defer rows.Close()

	entries, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func collect(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
