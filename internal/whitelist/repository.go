package whitelist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the whitelist.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// IsWhitelisted reports membership by distributor code.
func (r *Repository) IsWhitelisted(ctx context.Context, distributorCode string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM whitelisted_distributors WHERE distributor_code = $1)`,
		distributorCode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("whitelist: membership check: %w", err)
	}
	return exists, nil
}

// Get fetches one whitelist entry.
func (r *Repository) Get(ctx context.Context, distributorCode string) (*Entry, error) {
	var e Entry
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_name, distributor_code, distributor_phone, distributor_email,
		       lender, lender_email, anchor_id, created_at, updated_at
		FROM whitelisted_distributors
		WHERE distributor_code = $1`,
		distributorCode,
	).Scan(&e.ID, &e.CompanyName, &e.DistributorCode, &e.DistributorPhone, &e.DistributorEmail,
		&e.Lender, &e.LenderEmail, &e.AnchorID, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("whitelist: get: %w", err)
	}
	return &e, nil
}

// UpsertBatch inserts or updates entries keyed by distributor code. Never
// destructive: existing distributors not present in the batch stay.
func (r *Repository) UpsertBatch(ctx context.Context, entries []Entry) (int, error) {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO whitelisted_distributors (
				company_name, distributor_code, distributor_phone, distributor_email,
				lender, lender_email, anchor_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			ON CONFLICT (distributor_code) DO UPDATE SET
				company_name = EXCLUDED.company_name,
				distributor_phone = EXCLUDED.distributor_phone,
				distributor_email = EXCLUDED.distributor_email,
				lender = EXCLUDED.lender,
				lender_email = EXCLUDED.lender_email,
				anchor_id = EXCLUDED.anchor_id,
				updated_at = NOW()`,
			e.CompanyName, e.DistributorCode, e.DistributorPhone, e.DistributorEmail,
			e.Lender, e.LenderEmail, e.AnchorID,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("whitelist: upsert batch: %w", err)
		}
	}
	return len(entries), nil
}

// List returns whitelist entries matching the filter plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 1

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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM whitelisted_distributors`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("whitelist: count: %w", err)
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := `
		SELECT id, company_name, distributor_code, distributor_phone, distributor_email,
		       lender, lender_email, anchor_id, created_at, updated_at
		FROM whitelisted_distributors` + where +
		fmt.Sprintf(" ORDER BY company_name LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("whitelist: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CompanyName, &e.DistributorCode, &e.DistributorPhone,
			&e.DistributorEmail, &e.Lender, &e.LenderEmail, &e.AnchorID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("whitelist: scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
