package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists subscriptions.
type Repository interface {
	Create(ctx context.Context, sub Subscription) error
	Get(ctx context.Context, companyID, id string) (Subscription, error)
	SetInvoice(ctx context.Context, id, invoiceID string) error
}

// PostgresRepository stores subscriptions in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed subscription repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a subscription record.
func (r *PostgresRepository) Create(ctx context.Context, sub Subscription) error {
	id, err := uuid.Parse(sub.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO subscriptions
        (id, company_id, contact_id, platform_id, type, price, start_date, end_date, invoice_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, sub.CompanyID, sub.ContactID, sub.PlatformID, sub.Type, sub.Price,
		sub.StartDate.UTC(), sub.EndDate.UTC(), sub.InvoiceID, sub.CreatedAt.UTC())
	return err
}

// Get fetches a subscription within a company.
func (r *PostgresRepository) Get(ctx context.Context, companyID, id string) (Subscription, error) {
	row := r.db.QueryRow(ctx, `SELECT id, company_id, contact_id, platform_id, type, price, start_date, end_date, invoice_id, created_at
        FROM subscriptions WHERE company_id = $1 AND id = $2`, companyID, id)

	var (
		sub       Subscription
		subID     uuid.UUID
		startDate time.Time
		endDate   time.Time
		createdAt time.Time
	)
	err := row.Scan(&subID, &sub.CompanyID, &sub.ContactID, &sub.PlatformID, &sub.Type, &sub.Price,
		&startDate, &endDate, &sub.InvoiceID, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, ErrNotFound
		}
		return Subscription{}, err
	}
	sub.ID = subID.String()
	sub.StartDate = startDate.UTC()
	sub.EndDate = endDate.UTC()
	sub.CreatedAt = createdAt.UTC()
	return sub, nil
}

// SetInvoice records the posted invoice backing the subscription.
func (r *PostgresRepository) SetInvoice(ctx context.Context, id, invoiceID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE subscriptions SET invoice_id = $1 WHERE id = $2`, invoiceID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
