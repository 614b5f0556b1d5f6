package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresBooks persists accounting documents in PostgreSQL. It stands in
// for the external general-ledger subsystem behind the Books contract.
type PostgresBooks struct {
	db *pgxpool.Pool
}

// NewPostgresBooks constructs a Postgres-backed books implementation.
func NewPostgresBooks(db *pgxpool.Pool) *PostgresBooks {
	return &PostgresBooks{db: db}
}

func (b *PostgresBooks) insert(ctx context.Context, doc Document) (Document, error) {
	doc.ID = uuid.NewString()
	doc.State = StateDraft
	doc.CreatedAt = time.Now().UTC()

	tx, err := b.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Document{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO documents
        (id, kind, state, company_id, partner_id, counter_partner_id, journal_id, ref, direction, amount,
         transaction_id, bank, account_number, image_url, reconciled, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		doc.ID, doc.Kind, doc.State, doc.CompanyID, doc.PartnerID, doc.CounterPartnerID, doc.JournalID, doc.Ref,
		doc.Direction, doc.Amount, doc.TransactionID, doc.Bank, doc.AccountNumber, doc.ImageURL, false, doc.CreatedAt); err != nil {
		return Document{}, err
	}
	for _, line := range doc.Lines {
		if _, err := tx.Exec(ctx, `INSERT INTO document_lines (id, document_id, product_id, account_id, name, quantity, price_unit)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), doc.ID, line.ProductID, line.AccountID, line.Name, line.Quantity, line.PriceUnit); err != nil {
			return Document{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// CreateInvoice records a draft invoice.
func (b *PostgresBooks) CreateInvoice(ctx context.Context, spec InvoiceSpec) (Document, error) {
	return b.insert(ctx, Document{
		Kind: KindInvoice, CompanyID: spec.CompanyID, PartnerID: spec.PartnerID,
		JournalID: spec.JournalID, Ref: spec.Ref, Lines: spec.Lines,
	})
}

// CreateCreditNote records a draft credit note.
func (b *PostgresBooks) CreateCreditNote(ctx context.Context, spec InvoiceSpec) (Document, error) {
	return b.insert(ctx, Document{
		Kind: KindCreditNote, CompanyID: spec.CompanyID, PartnerID: spec.PartnerID,
		JournalID: spec.JournalID, Ref: spec.Ref, Lines: spec.Lines,
	})
}

// CreatePayment records a draft payment.
func (b *PostgresBooks) CreatePayment(ctx context.Context, spec PaymentSpec) (Document, error) {
	return b.insert(ctx, Document{
		Kind: KindPayment, CompanyID: spec.CompanyID, PartnerID: spec.PartnerID, JournalID: spec.JournalID,
		Direction: spec.Direction, Amount: spec.Amount, Ref: spec.Memo, TransactionID: spec.TransactionID,
		Bank: spec.Bank, AccountNumber: spec.AccountNumber, ImageURL: spec.ImageURL,
	})
}

// CreateTransfer resolves both parties' receivable accounts and records the
// balanced two-line entry.
func (b *PostgresBooks) CreateTransfer(ctx context.Context, spec TransferSpec) (Document, error) {
	fromAccount, err := b.receivableFor(ctx, spec.FromPartnerID)
	if err != nil {
		return Document{}, err
	}
	toAccount, err := b.receivableFor(ctx, spec.ToPartnerID)
	if err != nil {
		return Document{}, err
	}
	return b.insert(ctx, Document{
		Kind: KindTransferEntry, CompanyID: spec.CompanyID, PartnerID: spec.FromPartnerID,
		CounterPartnerID: spec.ToPartnerID, JournalID: spec.JournalID, Amount: spec.Amount, Ref: spec.Ref,
		Lines: []Line{
			{AccountID: toAccount, Name: spec.Ref, Quantity: 1, PriceUnit: spec.Amount},
			{AccountID: fromAccount, Name: spec.Ref, Quantity: 1, PriceUnit: spec.Amount.Neg()},
		},
	})
}

func (b *PostgresBooks) receivableFor(ctx context.Context, partnerID string) (string, error) {
	var account string
	err := b.db.QueryRow(ctx, `SELECT receivable_account_id FROM partner_accounts WHERE partner_id = $1`, partnerID).Scan(&account)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && account == "") {
		return "", fmt.Errorf("%w: partner %s has no receivable account", ErrNotConfigured, partnerID)
	}
	if err != nil {
		return "", err
	}
	return account, nil
}

// Post transitions a document to posted.
func (b *PostgresBooks) Post(ctx context.Context, id string) (Document, error) {
	if _, err := b.db.Exec(ctx, `UPDATE documents SET state = $1 WHERE id = $2`, StatePosted, id); err != nil {
		return Document{}, err
	}
	return b.Get(ctx, id)
}

// Cancel transitions a document to cancelled with a decline reason.
func (b *PostgresBooks) Cancel(ctx context.Context, id, reason string) (Document, error) {
	if _, err := b.db.Exec(ctx, `UPDATE documents SET state = $1, decline_reason = $2 WHERE id = $3`, StateCancelled, reason, id); err != nil {
		return Document{}, err
	}
	return b.Get(ctx, id)
}

// Get fetches a document and its lines.
func (b *PostgresBooks) Get(ctx context.Context, id string) (Document, error) {
	row := b.db.QueryRow(ctx, `SELECT id, kind, state, company_id, partner_id, counter_partner_id, journal_id, ref,
            direction, amount, transaction_id, bank, account_number, image_url, COALESCE(decline_reason, ''), reconciled, created_at
        FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}
		return Document{}, err
	}

	rows, err := b.db.Query(ctx, `SELECT product_id, account_id, name, quantity, price_unit
        FROM document_lines WHERE document_id = $1`, id)
	if err != nil {
		return Document{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ProductID, &line.AccountID, &line.Name, &line.Quantity, &line.PriceUnit); err != nil {
			return Document{}, err
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, rows.Err()
}

// FindPaymentByTransactionID locates a payment by its external transaction id.
func (b *PostgresBooks) FindPaymentByTransactionID(ctx context.Context, companyID, transactionID string) (Document, error) {
	row := b.db.QueryRow(ctx, `SELECT id, kind, state, company_id, partner_id, counter_partner_id, journal_id, ref,
            direction, amount, transaction_id, bank, account_number, image_url, COALESCE(decline_reason, ''), reconciled, created_at
        FROM documents WHERE kind = $1 AND company_id = $2 AND transaction_id = $3`, KindPayment, companyID, transactionID)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrDocumentNotFound
	}
	return doc, err
}

// OpenInboundPayments lists posted, unreconciled inbound payments for a partner.
func (b *PostgresBooks) OpenInboundPayments(ctx context.Context, companyID, partnerID string) ([]Document, error) {
	rows, err := b.db.Query(ctx, `SELECT id, kind, state, company_id, partner_id, counter_partner_id, journal_id, ref,
            direction, amount, transaction_id, bank, account_number, image_url, COALESCE(decline_reason, ''), reconciled, created_at
        FROM documents
        WHERE kind = $1 AND company_id = $2 AND partner_id = $3 AND state = $4 AND direction = $5 AND reconciled = FALSE`,
		KindPayment, companyID, partnerID, StatePosted, Inbound)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Reconcile marks the invoice and payments reconciled in one transaction.
func (b *PostgresBooks) Reconcile(ctx context.Context, invoiceID string, paymentIDs []string) error {
	tx, err := b.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	cmd, err := tx.Exec(ctx, `UPDATE documents SET reconciled = TRUE WHERE id = $1`, invoiceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	for _, id := range paymentIDs {
		if _, err := tx.Exec(ctx, `UPDATE documents SET reconciled = TRUE WHERE id = $1`, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc       Document
		amount    decimal.Decimal
		createdAt time.Time
	)
	if err := row.Scan(&doc.ID, &doc.Kind, &doc.State, &doc.CompanyID, &doc.PartnerID, &doc.CounterPartnerID,
		&doc.JournalID, &doc.Ref, &doc.Direction, &amount, &doc.TransactionID, &doc.Bank, &doc.AccountNumber,
		&doc.ImageURL, &doc.DeclineReason, &doc.Reconciled, &createdAt); err != nil {
		return Document{}, err
	}
	doc.Amount = amount
	doc.CreatedAt = createdAt.UTC()
	return doc, nil
}
