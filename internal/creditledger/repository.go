package creditledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the credit ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `
	id, company_name, distributor_code, city, state, lender, limit_expiry_date,
	sanction_limit, operative_limit, utilised_limit, available_limit, overdue,
	pending_invoices, current_available, billing_status, anchor_id, funding_type,
	distributor_phone, distributor_email, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.CompanyName, &e.DistributorCode, &e.City, &e.State, &e.Lender, &e.LimitExpiryDate,
		&e.SanctionLimit, &e.OperativeLimit, &e.UtilisedLimit, &e.AvailableLimit, &e.Overdue,
		&e.PendingInvoices, &e.CurrentAvailable, &e.BillingStatus, &e.AnchorID, &e.FundingType,
		&e.DistributorPhone, &e.DistributorEmail, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrLedgerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("creditledger: scan entry: %w", err)
	}
	return &e, nil
}

// Get fetches the ledger entry for a distributor under an anchor.
func (r *Repository) Get(ctx context.Context, anchorID, distributorCode string) (*Entry, error) {
	query := `SELECT` + entryColumns + `
		FROM credit_ledger
		WHERE anchor_id = $1 AND distributor_code = $2`
	return scanEntry(r.pool.QueryRow(ctx, query, anchorID, distributorCode))
}

// ReplaceForAnchor deletes every ledger entry for the anchor and inserts the
// new snapshot in one all-or-nothing transaction. A mid-batch failure leaves
// the prior snapshot untouched.
func (r *Repository) ReplaceForAnchor(ctx context.Context, anchorID string, entries []Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM credit_ledger WHERE anchor_id = $1`, anchorID); err != nil {
			return fmt.Errorf("creditledger: delete snapshot: %w", err)
		}

		query := `
			INSERT INTO credit_ledger (
				company_name, distributor_code, city, state, lender, limit_expiry_date,
				sanction_limit, operative_limit, utilised_limit, available_limit, overdue,
				pending_invoices, current_available, billing_status, anchor_id, funding_type,
				distributor_phone, distributor_email, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())`

		for _, e := range entries {
			if _, err := tx.Exec(ctx, query,
				e.CompanyName, e.DistributorCode, e.City, e.State, e.Lender, e.LimitExpiryDate,
				e.SanctionLimit, e.OperativeLimit, e.UtilisedLimit, e.AvailableLimit, e.Overdue,
				e.PendingInvoices, e.CurrentAvailable, e.BillingStatus, anchorID, e.FundingType,
				e.DistributorPhone, e.DistributorEmail,
			); err != nil {
				return fmt.Errorf("creditledger: insert %s: %w", e.DistributorCode, err)
			}
		}
		return nil
	})
}

// UpdateDerived overwrites the derived exposure fields with a freshly
// recomputed set. The caller serializes calls per distributor.
func (r *Repository) UpdateDerived(ctx context.Context, anchorID, distributorCode string, d Derived) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE credit_ledger
		SET pending_invoices = $3, current_available = $4, billing_status = $5, updated_at = NOW()
		WHERE anchor_id = $1 AND distributor_code = $2`,
		anchorID, distributorCode, d.PendingInvoices, d.CurrentAvailable, d.BillingStatus,
	)
	if err != nil {
		return fmt.Errorf("creditledger: update derived: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLedgerNotFound
	}
	return nil
}

// List returns ledger entries matching the filter plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.AnchorID != "" {
		where += fmt.Sprintf(" AND anchor_id = $%d", argNum)
		args = append(args, filter.AnchorID)
		argNum++
	}
	if filter.DistributorPhone != "" {
		where += fmt.Sprintf(" AND distributor_phone = $%d", argNum)
		args = append(args, filter.DistributorPhone)
		argNum++
	}
	if filter.CompanyName != "" {
		where += fmt.Sprintf(" AND company_name ILIKE $%d", argNum)
		args = append(args, "%"+filter.CompanyName+"%")
		argNum++
	}
	if filter.DistributorCode != "" {
		where += fmt.Sprintf(" AND distributor_code ILIKE $%d", argNum)
		args = append(args, "%"+filter.DistributorCode+"%")
		argNum++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM credit_ledger`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("creditledger: count: %w", err)
	}

	query := `SELECT` + entryColumns + ` FROM credit_ledger` + where + ` ORDER BY company_name, distributor_code`
	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("creditledger: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}
	return entries, total, rows.Err()
}
