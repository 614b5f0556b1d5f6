package accounting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBooks is a concurrency-safe in-memory Books implementation used in
// tests and dev mode. Receivable accounts per partner are registered
// explicitly; transfers fail with ErrNotConfigured when a party has none
// and no default is set.
type MemoryBooks struct {
	mu                sync.RWMutex
	docs              map[string]Document
	receivables       map[string]string
	defaultReceivable string
}

// NewMemoryBooks constructs an empty in-memory books instance.
func NewMemoryBooks() *MemoryBooks {
	return &MemoryBooks{
		docs:        make(map[string]Document),
		receivables: make(map[string]string),
	}
}

// SetReceivableAccount registers a partner's receivable account.
func (b *MemoryBooks) SetReceivableAccount(partnerID, accountID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receivables[partnerID] = accountID
}

// SetDefaultReceivableAccount sets the fallback receivable account.
func (b *MemoryBooks) SetDefaultReceivableAccount(accountID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaultReceivable = accountID
}

// Documents returns a snapshot of all documents, useful in assertions.
func (b *MemoryBooks) Documents() []Document {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Document, 0, len(b.docs))
	for _, d := range b.docs {
		out = append(out, d)
	}
	return out
}

// DocumentsOfKind returns all documents of one kind.
func (b *MemoryBooks) DocumentsOfKind(kind DocumentKind) []Document {
	var out []Document
	for _, d := range b.Documents() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func (b *MemoryBooks) create(doc Document) Document {
	doc.ID = uuid.NewString()
	doc.State = StateDraft
	doc.CreatedAt = time.Now().UTC()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[doc.ID] = doc
	return doc
}

// CreateInvoice records a draft invoice.
func (b *MemoryBooks) CreateInvoice(_ context.Context, spec InvoiceSpec) (Document, error) {
	return b.create(Document{
		Kind:      KindInvoice,
		CompanyID: spec.CompanyID,
		PartnerID: spec.PartnerID,
		JournalID: spec.JournalID,
		Ref:       spec.Ref,
		Lines:     spec.Lines,
	}), nil
}

// CreateCreditNote records a draft credit note.
func (b *MemoryBooks) CreateCreditNote(_ context.Context, spec InvoiceSpec) (Document, error) {
	return b.create(Document{
		Kind:      KindCreditNote,
		CompanyID: spec.CompanyID,
		PartnerID: spec.PartnerID,
		JournalID: spec.JournalID,
		Ref:       spec.Ref,
		Lines:     spec.Lines,
	}), nil
}

// CreatePayment records a draft payment.
func (b *MemoryBooks) CreatePayment(_ context.Context, spec PaymentSpec) (Document, error) {
	return b.create(Document{
		Kind:          KindPayment,
		CompanyID:     spec.CompanyID,
		PartnerID:     spec.PartnerID,
		JournalID:     spec.JournalID,
		Direction:     spec.Direction,
		Amount:        spec.Amount,
		Ref:           spec.Memo,
		TransactionID: spec.TransactionID,
		Bank:          spec.Bank,
		AccountNumber: spec.AccountNumber,
		ImageURL:      spec.ImageURL,
	}), nil
}

// CreateTransfer records a draft balanced transfer entry after resolving
// both parties' receivable accounts.
func (b *MemoryBooks) CreateTransfer(_ context.Context, spec TransferSpec) (Document, error) {
	fromAccount, err := b.receivableFor(spec.FromPartnerID)
	if err != nil {
		return Document{}, err
	}
	toAccount, err := b.receivableFor(spec.ToPartnerID)
	if err != nil {
		return Document{}, err
	}
	return b.create(Document{
		Kind:             KindTransferEntry,
		CompanyID:        spec.CompanyID,
		PartnerID:        spec.FromPartnerID,
		CounterPartnerID: spec.ToPartnerID,
		JournalID:        spec.JournalID,
		Amount:           spec.Amount,
		Ref:              spec.Ref,
		Lines: []Line{
			{AccountID: toAccount, Name: spec.Ref, Quantity: 1, PriceUnit: spec.Amount},
			{AccountID: fromAccount, Name: spec.Ref, Quantity: 1, PriceUnit: spec.Amount.Neg()},
		},
	}), nil
}

func (b *MemoryBooks) receivableFor(partnerID string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if acc, ok := b.receivables[partnerID]; ok {
		return acc, nil
	}
	if b.defaultReceivable != "" {
		return b.defaultReceivable, nil
	}
	return "", fmt.Errorf("%w: partner %s has no receivable account", ErrNotConfigured, partnerID)
}

// Post transitions a document to posted.
func (b *MemoryBooks) Post(_ context.Context, id string) (Document, error) {
	return b.setState(id, StatePosted, "")
}

// Cancel transitions a document to cancelled with a decline reason.
func (b *MemoryBooks) Cancel(_ context.Context, id, reason string) (Document, error) {
	return b.setState(id, StateCancelled, reason)
}

func (b *MemoryBooks) setState(id string, state DocumentState, reason string) (Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc, ok := b.docs[id]
	if !ok {
		return Document{}, ErrDocumentNotFound
	}
	doc.State = state
	if reason != "" {
		doc.DeclineReason = reason
	}
	b.docs[id] = doc
	return doc, nil
}

// Get fetches a document by id.
func (b *MemoryBooks) Get(_ context.Context, id string) (Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	doc, ok := b.docs[id]
	if !ok {
		return Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

// FindPaymentByTransactionID locates a payment by its external transaction id.
func (b *MemoryBooks) FindPaymentByTransactionID(_ context.Context, companyID, transactionID string) (Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, doc := range b.docs {
		if doc.Kind == KindPayment && doc.CompanyID == companyID && doc.TransactionID == transactionID {
			return doc, nil
		}
	}
	return Document{}, ErrDocumentNotFound
}

// OpenInboundPayments lists posted, unreconciled inbound payments for a partner.
func (b *MemoryBooks) OpenInboundPayments(_ context.Context, companyID, partnerID string) ([]Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Document
	for _, doc := range b.docs {
		if doc.Kind == KindPayment && doc.CompanyID == companyID && doc.PartnerID == partnerID &&
			doc.State == StatePosted && doc.Direction == Inbound && !doc.Reconciled {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Reconcile marks the invoice and the given payments reconciled.
func (b *MemoryBooks) Reconcile(_ context.Context, invoiceID string, paymentIDs []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	invoice, ok := b.docs[invoiceID]
	if !ok {
		return ErrDocumentNotFound
	}
	invoice.Reconciled = true
	b.docs[invoiceID] = invoice
	for _, id := range paymentIDs {
		payment, ok := b.docs[id]
		if !ok {
			return ErrDocumentNotFound
		}
		payment.Reconciled = true
		b.docs[id] = payment
	}
	return nil
}
