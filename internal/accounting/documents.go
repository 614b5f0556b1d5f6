package accounting

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind discriminates the accounting document shapes the engine creates.
type DocumentKind string

const (
	KindInvoice       DocumentKind = "invoice"
	KindCreditNote    DocumentKind = "credit_note"
	KindPayment       DocumentKind = "payment"
	KindTransferEntry DocumentKind = "transfer_entry"
)

// DocumentState mirrors the posted/draft lifecycle of the external ledger.
type DocumentState string

const (
	StateDraft     DocumentState = "draft"
	StatePosted    DocumentState = "posted"
	StateCancelled DocumentState = "cancelled"
)

// PaymentDirection is the money flow of a payment document.
type PaymentDirection string

const (
	Inbound  PaymentDirection = "inbound"
	Outbound PaymentDirection = "outbound"
)

// Line is a priced line on an invoice or credit note.
type Line struct {
	ProductID string
	AccountID string
	Name      string
	Quantity  int64
	PriceUnit decimal.Decimal
}

// Document is the engine's view of an accounting document owned by the
// external general-ledger collaborator. Only the fields relevant to the
// wallet engine are surfaced.
type Document struct {
	ID        string
	Kind      DocumentKind
	State     DocumentState
	CompanyID string
	PartnerID string
	JournalID string
	Ref       string
	Lines     []Line

	// Payment-only fields.
	Direction     PaymentDirection
	Amount        decimal.Decimal
	TransactionID string
	Bank          string
	AccountNumber string
	ImageURL      string
	DeclineReason string
	Reconciled    bool

	// Transfer-only fields.
	CounterPartnerID string

	CreatedAt time.Time
}

// Total sums the priced lines of an invoice-shaped document.
func (d Document) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.PriceUnit.Mul(decimal.NewFromInt(l.Quantity)))
	}
	return total
}
