package onboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository provides PostgreSQL backed persistence for onboarding records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, anchor_id, company_name, distributor_code, distributor_phone,
	distributor_email, city, state, lender, sanction_limit, funding_type, status,
	limit_live_date, limit_expiry_date, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.AnchorID, &e.CompanyName, &e.DistributorCode, &e.DistributorPhone,
		&e.DistributorEmail, &e.City, &e.State, &e.Lender, &e.SanctionLimit, &e.FundingType,
		&e.Status, &e.LimitLiveDate, &e.LimitExpiryDate, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("onboard: scan: %w", err)
	}
	return &e, nil
}

// Get fetches one onboarding record by its natural key.
func (r *Repository) Get(ctx context.Context, anchorID, distributorCode string) (*Entry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM onboarded_distributors WHERE anchor_id = $1 AND distributor_code = $2`,
		anchorID, distributorCode)
	return scanEntry(row)
}

// UpsertBatch inserts or updates records keyed by (anchor_id,
// distributor_code). Existing records absent from the batch are untouched.
func (r *Repository) UpsertBatch(ctx context.Context, entries []Entry) (int, error) {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO onboarded_distributors (
				anchor_id, company_name, distributor_code, distributor_phone, distributor_email,
				city, state, lender, sanction_limit, funding_type, status,
				limit_live_date, limit_expiry_date, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
			ON CONFLICT (anchor_id, distributor_code) DO UPDATE SET
				company_name = EXCLUDED.company_name,
				distributor_phone = EXCLUDED.distributor_phone,
				distributor_email = EXCLUDED.distributor_email,
				city = EXCLUDED.city,
				state = EXCLUDED.state,
				lender = EXCLUDED.lender,
				sanction_limit = EXCLUDED.sanction_limit,
				funding_type = EXCLUDED.funding_type,
				status = EXCLUDED.status,
				limit_live_date = EXCLUDED.limit_live_date,
				limit_expiry_date = EXCLUDED.limit_expiry_date,
				updated_at = NOW()`,
			e.AnchorID, e.CompanyName, e.DistributorCode, e.DistributorPhone, e.DistributorEmail,
			e.City, e.State, e.Lender, e.SanctionLimit, e.FundingType, e.Status,
			e.LimitLiveDate, e.LimitExpiryDate,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("onboard: upsert batch: %w", err)
		}
	}
	return len(entries), nil
}

// List returns onboarding records matching the filter plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 1

	add := func(clause string, value any) {
		where += fmt.Sprintf(" AND "+clause, argNum)
		args = append(args, value)
		argNum++
	}
	if filter.AnchorID != "" {
		add("anchor_id = $%d", filter.AnchorID)
	}
	if filter.CompanyName != "" {
		add("company_name ILIKE $%d", "%"+filter.CompanyName+"%")
	}
	if filter.DistributorCode != "" {
		add("distributor_code ILIKE $%d", "%"+filter.DistributorCode+"%")
	}
	if filter.DistributorPhone != "" {
		add("distributor_phone = $%d", filter.DistributorPhone)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM onboarded_distributors`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("onboard: count: %w", err)
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := `SELECT ` + entryColumns + ` FROM onboarded_distributors` + where +
		fmt.Sprintf(" ORDER BY company_name LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("onboard: list: %w", err)
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
