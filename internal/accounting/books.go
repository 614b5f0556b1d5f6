package accounting

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates missing company setup (product, journal or
	// account) required to build a document. Operator misconfiguration, not
	// caller input.
	ErrNotConfigured = errors.New("accounting configuration missing")

	// ErrDocumentNotFound indicates the referenced document does not exist.
	ErrDocumentNotFound = errors.New("accounting document not found")
)

// InvoiceSpec describes an invoice or credit note to create.
type InvoiceSpec struct {
	CompanyID string
	PartnerID string
	JournalID string
	Ref       string
	Lines     []Line
}

// PaymentSpec describes a payment document to create. Amount is always
// positive; the direction carries the sign.
type PaymentSpec struct {
	CompanyID     string
	PartnerID     string
	JournalID     string
	Direction     PaymentDirection
	Amount        decimal.Decimal
	Memo          string
	TransactionID string
	Bank          string
	AccountNumber string
	ImageURL      string
}

// TransferSpec describes a balanced two-line entry moving wallet value
// between two parties: debit the receiving party's receivable, credit the
// paying party's receivable.
type TransferSpec struct {
	CompanyID     string
	FromPartnerID string
	ToPartnerID   string
	JournalID     string
	Amount        decimal.Decimal
	Ref           string
}

// Books is the narrow contract to the external general-ledger subsystem.
// The engine only creates documents, posts or cancels them, and reads them
// back; chart of accounts, journals and taxes live behind this interface.
type Books interface {
	CreateInvoice(ctx context.Context, spec InvoiceSpec) (Document, error)
	CreateCreditNote(ctx context.Context, spec InvoiceSpec) (Document, error)
	CreatePayment(ctx context.Context, spec PaymentSpec) (Document, error)
	CreateTransfer(ctx context.Context, spec TransferSpec) (Document, error)

	Post(ctx context.Context, id string) (Document, error)
	Cancel(ctx context.Context, id, reason string) (Document, error)
	Get(ctx context.Context, id string) (Document, error)
	FindPaymentByTransactionID(ctx context.Context, companyID, transactionID string) (Document, error)

	// OpenInboundPayments lists posted, unreconciled inbound payments for a
	// partner; Reconcile matches them against an invoice best-effort.
	OpenInboundPayments(ctx context.Context, companyID, partnerID string) ([]Document, error)
	Reconcile(ctx context.Context, invoiceID string, paymentIDs []string) error
}
