package wallet

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the wallet does not exist.
	ErrNotFound = errors.New("wallet not found")

	// ErrEntryNotFound indicates the ledger entry does not exist.
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrContactNotFound is returned by contact directories when the
	// referenced contact does not exist in the company.
	ErrContactNotFound = errors.New("contact not found")

	// ErrInsufficientBalance occurs when a guarded withdrawal exceeds the
	// posted balance. Raised before any accounting document is created.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)

// Wallet is a per-contact stored-value balance backed by the ledger entry
// store. Balance is a cached projection; it must always equal the posted
// balance derived from the entries.
type Wallet struct {
	ID        string
	ContactID string
	CompanyID string
	Currency  string
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// EntryStatus is the confirmation state of a ledger entry. Only posted
// entries count toward the balance.
type EntryStatus string

const (
	StatusDraft  EntryStatus = "draft"
	StatusPosted EntryStatus = "posted"
)

// DepositMethod describes how value entered the wallet.
type DepositMethod string

const (
	MethodDirect       DepositMethod = "direct"
	MethodBankTransfer DepositMethod = "bank_transfer"
)

// DocumentKind tags the justifying record a ledger entry points at.
type DocumentKind string

const (
	RefNone          DocumentKind = ""
	RefPayment       DocumentKind = "payment"
	RefInvoice       DocumentKind = "invoice"
	RefCreditNote    DocumentKind = "credit_note"
	RefTransferEntry DocumentKind = "transfer_entry"
	RefContact       DocumentKind = "contact"
	RefSubscription  DocumentKind = "subscription"
)

// DocumentRef is the tagged reference from a ledger entry to the accounting
// document (or bare contact) that justifies it.
type DocumentRef struct {
	Kind DocumentKind
	ID   string
}

// IsZero reports whether no reference is set.
func (r DocumentRef) IsZero() bool { return r.Kind == RefNone }

// PaymentRef references a payment document.
func PaymentRef(id string) DocumentRef { return DocumentRef{Kind: RefPayment, ID: id} }

// InvoiceRef references an invoice document.
func InvoiceRef(id string) DocumentRef { return DocumentRef{Kind: RefInvoice, ID: id} }

// CreditNoteRef references a credit note document.
func CreditNoteRef(id string) DocumentRef { return DocumentRef{Kind: RefCreditNote, ID: id} }

// TransferRef references a balanced transfer entry.
func TransferRef(id string) DocumentRef { return DocumentRef{Kind: RefTransferEntry, ID: id} }

// ContactRef references the bare contact when no document was created.
func ContactRef(id string) DocumentRef { return DocumentRef{Kind: RefContact, ID: id} }

// SubscriptionRef references a subscription record.
func SubscriptionRef(id string) DocumentRef { return DocumentRef{Kind: RefSubscription, ID: id} }

// LedgerEntry is one append-only wallet movement. Issued is signed: a
// negative issued amount represents a debit. Used is a separate positive
// debit field for consumption flows; both count toward the balance.
type LedgerEntry struct {
	ID          string
	WalletID    string
	Description string
	Issued      decimal.Decimal
	Used        decimal.Decimal
	Status      EntryStatus
	Ref         DocumentRef

	Method        DepositMethod
	Reference     string
	Bank          string
	AccountNumber string

	CreatedAt time.Time
}
