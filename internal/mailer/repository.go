package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository provides PostgreSQL backed persistence for email templates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByLender fetches the template configured for one lender.
func (r *Repository) GetByLender(ctx context.Context, lender string) (*Template, error) {
	var t Template
	err := r.pool.QueryRow(ctx,
		`SELECT id, lender, subject, body, created_at, updated_at
		 FROM email_templates WHERE lender = $1`,
		lender,
	).Scan(&t.ID, &t.Lender, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mailer: template for %s: %w", lender, err)
	}
	return &t, nil
}

// Upsert stores a lender's template.
func (r *Repository) Upsert(ctx context.Context, t Template) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO email_templates (lender, subject, body, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (lender) DO UPDATE SET
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			updated_at = NOW()`,
		t.Lender, t.Subject, t.Body,
	)
	if err != nil {
		return fmt.Errorf("mailer: upsert template for %s: %w", t.Lender, err)
	}
	return nil
}
