package contact

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists contacts.
type Repository interface {
	Create(ctx context.Context, contact Contact) error
	Get(ctx context.Context, companyID, id string) (Contact, error)
	FindBySubID(ctx context.Context, companyID, subID string) (Contact, error)
	FindByMobile(ctx context.Context, companyID, mobile string) (Contact, error)
	FindByEmail(ctx context.Context, companyID, email string) (Contact, error)
	Update(ctx context.Context, contact Contact) error
}

// PostgresRepository stores contacts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed contact repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const contactColumns = `id, company_id, sub_id, name, mobile, email, city, gender, type, created_at`

// Create inserts a contact record.
func (r *PostgresRepository) Create(ctx context.Context, contact Contact) error {
	contactID, err := uuid.Parse(contact.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO contacts (`+contactColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		contactID, contact.CompanyID, contact.SubID, contact.Name, contact.Mobile,
		contact.Email, contact.City, contact.Gender, contact.Type, contact.CreatedAt.UTC())
	return err
}

// Get fetches a contact by id within a company.
func (r *PostgresRepository) Get(ctx context.Context, companyID, id string) (Contact, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts
        WHERE company_id = $1 AND id = $2`, companyID, id)
	return scanContact(row)
}

// FindBySubID fetches a contact by its platform identifier.
func (r *PostgresRepository) FindBySubID(ctx context.Context, companyID, subID string) (Contact, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts
        WHERE company_id = $1 AND sub_id = $2`, companyID, subID)
	return scanContact(row)
}

// FindByMobile fetches a contact by mobile number.
func (r *PostgresRepository) FindByMobile(ctx context.Context, companyID, mobile string) (Contact, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts
        WHERE company_id = $1 AND mobile = $2`, companyID, mobile)
	return scanContact(row)
}

// FindByEmail fetches a contact by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, companyID, email string) (Contact, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts
        WHERE company_id = $1 AND email = $2`, companyID, email)
	return scanContact(row)
}

// Update rewrites the mutable contact fields.
func (r *PostgresRepository) Update(ctx context.Context, contact Contact) error {
	cmd, err := r.db.Exec(ctx, `UPDATE contacts
        SET name = $1, mobile = $2, email = $3, city = $4, gender = $5, type = $6
        WHERE company_id = $7 AND id = $8`,
		contact.Name, contact.Mobile, contact.Email, contact.City, contact.Gender, contact.Type, contact.CompanyID, contact.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContact(row pgx.Row) (Contact, error) {
	var (
		c         Contact
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &c.CompanyID, &c.SubID, &c.Name, &c.Mobile, &c.Email, &c.City, &c.Gender, &c.Type, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, err
	}
	c.ID = id.String()
	c.CreatedAt = createdAt.UTC()
	return c, nil
}
