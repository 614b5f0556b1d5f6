package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists wallet metadata and the cached balance.
type Repository interface {
	Create(ctx context.Context, wallet Wallet) error
	Get(ctx context.Context, id string) (Wallet, error)
	FindByContact(ctx context.Context, companyID, contactID string) (Wallet, error)
	SetBalance(ctx context.Context, id string, balance decimal.Decimal) error
}

// EntryRepository persists ledger entries. Entries are append-only; the
// only permitted mutations are the draft-to-posted transition and
// re-pointing the document reference at a transfer entry.
type EntryRepository interface {
	Append(ctx context.Context, entry LedgerEntry) error
	Get(ctx context.Context, id string) (LedgerEntry, error)
	ListByWallet(ctx context.Context, walletID string) ([]LedgerEntry, error)
	FindByRef(ctx context.Context, ref DocumentRef) (LedgerEntry, error)
	SetStatus(ctx context.Context, id string, status EntryStatus) error
	SetRef(ctx context.Context, id string, ref DocumentRef) error
}

// ContactInfo is the minimal contact view wallet operations need.
type ContactInfo struct {
	ID     string
	Name   string
	Type   string
	Mobile string
}

// ContactDirectory resolves contacts within a company scope. Implemented
// by the contact package; declared here to keep the dependency one-way.
type ContactDirectory interface {
	Lookup(ctx context.Context, companyID, contactID string) (ContactInfo, error)
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed wallet repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record.
func (r *PostgresRepository) Create(ctx context.Context, wallet Wallet) error {
	walletID, err := uuid.Parse(wallet.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallets (id, contact_id, company_id, currency, balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		walletID, wallet.ContactID, wallet.CompanyID, wallet.Currency, wallet.Balance, wallet.CreatedAt.UTC())
	return err
}

// Get fetches a wallet by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT id, contact_id, company_id, currency, balance, created_at
        FROM wallets WHERE id = $1`, id)
	return scanWallet(row)
}

// FindByContact fetches the wallet owned by a contact within a company.
func (r *PostgresRepository) FindByContact(ctx context.Context, companyID, contactID string) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT id, contact_id, company_id, currency, balance, created_at
        FROM wallets WHERE company_id = $1 AND contact_id = $2`, companyID, contactID)
	return scanWallet(row)
}

// SetBalance writes the cached balance projection.
func (r *PostgresRepository) SetBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	cmd, err := r.db.Exec(ctx, `UPDATE wallets SET balance = $1 WHERE id = $2`, balance, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &w.ContactID, &w.CompanyID, &w.Currency, &w.Balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.CreatedAt = createdAt.UTC()
	return w, nil
}

// PostgresEntryRepository stores ledger entries in PostgreSQL.
type PostgresEntryRepository struct {
	db *pgxpool.Pool
}

// NewPostgresEntryRepository builds a Postgres-backed entry repository.
func NewPostgresEntryRepository(db *pgxpool.Pool) *PostgresEntryRepository {
	return &PostgresEntryRepository{db: db}
}

// Append inserts a ledger entry.
func (r *PostgresEntryRepository) Append(ctx context.Context, entry LedgerEntry) error {
	entryID, err := uuid.Parse(entry.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallet_entries
        (id, wallet_id, description, issued, used, status, ref_kind, ref_id, method, reference, bank, account_number, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entryID, entry.WalletID, entry.Description, entry.Issued, entry.Used, entry.Status,
		entry.Ref.Kind, entry.Ref.ID, entry.Method, entry.Reference, entry.Bank, entry.AccountNumber, entry.CreatedAt.UTC())
	return err
}

// Get fetches a ledger entry by id.
func (r *PostgresEntryRepository) Get(ctx context.Context, id string) (LedgerEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT id, wallet_id, description, issued, used, status, ref_kind, ref_id, method, reference, bank, account_number, created_at
        FROM wallet_entries WHERE id = $1`, id)
	return scanEntry(row)
}

// ListByWallet returns all entries for a wallet, oldest first.
func (r *PostgresEntryRepository) ListByWallet(ctx context.Context, walletID string) ([]LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, wallet_id, description, issued, used, status, ref_kind, ref_id, method, reference, bank, account_number, created_at
        FROM wallet_entries WHERE wallet_id = $1 ORDER BY created_at`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FindByRef locates the entry pointing at a given document reference.
func (r *PostgresEntryRepository) FindByRef(ctx context.Context, ref DocumentRef) (LedgerEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT id, wallet_id, description, issued, used, status, ref_kind, ref_id, method, reference, bank, account_number, created_at
        FROM wallet_entries WHERE ref_kind = $1 AND ref_id = $2 LIMIT 1`, ref.Kind, ref.ID)
	return scanEntry(row)
}

// SetStatus transitions an entry's status.
func (r *PostgresEntryRepository) SetStatus(ctx context.Context, id string, status EntryStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE wallet_entries SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// SetRef re-points an entry at a different justifying document.
func (r *PostgresEntryRepository) SetRef(ctx context.Context, id string, ref DocumentRef) error {
	cmd, err := r.db.Exec(ctx, `UPDATE wallet_entries SET ref_kind = $1, ref_id = $2 WHERE id = $3`, ref.Kind, ref.ID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func scanEntry(row pgx.Row) (LedgerEntry, error) {
	var (
		entry     LedgerEntry
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &entry.WalletID, &entry.Description, &entry.Issued, &entry.Used, &entry.Status,
		&entry.Ref.Kind, &entry.Ref.ID, &entry.Method, &entry.Reference, &entry.Bank, &entry.AccountNumber, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LedgerEntry{}, ErrEntryNotFound
		}
		return LedgerEntry{}, err
	}
	entry.ID = id.String()
	entry.CreatedAt = createdAt.UTC()
	return entry, nil
}
