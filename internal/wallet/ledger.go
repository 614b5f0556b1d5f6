package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caram-platform/caram-ledger/internal/accounting"
)

// lockTable serializes ledger mutations per wallet id. Two-wallet flows
// acquire both locks in id order to avoid deadlock.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) lock(id string) func() {
	t.mu.Lock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (t *lockTable) lockPair(a, b string) func() {
	if a == b {
		return t.lock(a)
	}
	// Lock in id order to prevent deadlocks.
	if a > b {
		a, b = b, a
	}
	unlockA := t.lock(a)
	unlockB := t.lock(b)
	return func() {
		unlockB()
		unlockA()
	}
}

// Ledger owns the two transactional primitives every wallet mutation
// composes from: Withdraw and Deposit. Each runs under a per-wallet
// mutual-exclusion scope so the balance recomputation always sees the most
// recent committed entry set.
type Ledger struct {
	wallets Repository
	entries EntryRepository
	factory *accounting.Factory
	locks   *lockTable
}

// NewLedger builds the wallet ledger over its stores and document factory.
func NewLedger(wallets Repository, entries EntryRepository, factory *accounting.Factory) *Ledger {
	return &Ledger{wallets: wallets, entries: entries, factory: factory, locks: newLockTable()}
}

// PostedBalance re-derives the balance of a wallet from its posted entries.
func (l *Ledger) PostedBalance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	entries, err := l.entries.ListByWallet(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}
	return PostedBalance(entries), nil
}

// FindEntryByReference scans a wallet's entries for the one carrying the
// given reference tag. Settlement steps tag their entries so a retried
// settlement can detect work that already happened.
func (l *Ledger) FindEntryByReference(ctx context.Context, walletID, reference string) (LedgerEntry, bool, error) {
	if reference == "" {
		return LedgerEntry{}, false, nil
	}
	entries, err := l.entries.ListByWallet(ctx, walletID)
	if err != nil {
		return LedgerEntry{}, false, err
	}
	for _, e := range entries {
		if e.Reference == reference {
			return e, true, nil
		}
	}
	return LedgerEntry{}, false, nil
}

// WithdrawInput parameterizes a wallet debit.
type WithdrawInput struct {
	WalletID    string
	Amount      decimal.Decimal
	Commission  decimal.Decimal
	Fine        decimal.Decimal
	Description string
	Status      EntryStatus

	// PayerID is the contact the backing invoice is issued against.
	PayerID string

	// CreateInvoice requests a commission/fine invoice. The invoice is
	// built when commission >= 0 (zero included) or fine > 0.
	CreateInvoice bool

	// EnforceBalance rejects the withdrawal with ErrInsufficientBalance
	// when the amount exceeds the posted balance, before any document is
	// created. Commission collection paths leave this off.
	EnforceBalance bool

	// Ref is the fallback document reference when no invoice is created.
	// Defaults to the payer contact.
	Ref DocumentRef

	Reference     string
	Bank          string
	AccountNumber string
}

// Withdraw posts a debit entry (issued = -amount), optionally backed by a
// commission/fine invoice, and rewrites the cached balance from the posted
// entry set. Draft withdrawals never touch the cached balance; only posted
// entries count.
func (l *Ledger) Withdraw(ctx context.Context, in WithdrawInput) (LedgerEntry, error) {
	unlock := l.locks.lock(in.WalletID)
	defer unlock()
	return l.withdrawLocked(ctx, in)
}

func (l *Ledger) withdrawLocked(ctx context.Context, in WithdrawInput) (LedgerEntry, error) {
	w, err := l.wallets.Get(ctx, in.WalletID)
	if err != nil {
		return LedgerEntry{}, err
	}
	status := in.Status
	if status == "" {
		status = StatusPosted
	}

	if in.EnforceBalance {
		balance, err := l.PostedBalance(ctx, in.WalletID)
		if err != nil {
			return LedgerEntry{}, err
		}
		if in.Amount.GreaterThan(balance) {
			return LedgerEntry{}, ErrInsufficientBalance
		}
	}

	ref := in.Ref
	if in.CreateInvoice && (!in.Commission.IsNegative() || in.Fine.IsPositive()) {
		invoice, err := l.factory.CommissionInvoice(ctx, w.CompanyID, in.PayerID, in.Commission, in.Fine, in.Description)
		if err != nil {
			return LedgerEntry{}, err
		}
		ref = InvoiceRef(invoice.ID)
	}
	if ref.IsZero() {
		ref = ContactRef(in.PayerID)
	}

	entry := LedgerEntry{
		ID:            uuid.NewString(),
		WalletID:      in.WalletID,
		Description:   in.Description,
		Issued:        in.Amount.Neg(),
		Used:          decimal.Zero,
		Status:        status,
		Ref:           ref,
		Method:        MethodDirect,
		Reference:     in.Reference,
		Bank:          in.Bank,
		AccountNumber: in.AccountNumber,
		CreatedAt:     time.Now().UTC(),
	}
	if err := l.entries.Append(ctx, entry); err != nil {
		return LedgerEntry{}, err
	}

	if status == StatusPosted {
		if err := l.writeBalance(ctx, in.WalletID); err != nil {
			return LedgerEntry{}, err
		}
	}
	return entry, nil
}

// DepositInput parameterizes a wallet credit.
type DepositInput struct {
	WalletID    string
	Amount      decimal.Decimal
	Description string
	Status      EntryStatus

	// PayerID is the contact the backing payment is recorded against.
	PayerID string

	// CreatePayment requests a payment document for the amount. A negative
	// amount produces an outbound payment.
	CreatePayment bool

	// MethodType selects the payment journal; defaults to cash.
	MethodType string

	// PostPayment posts the created payment; defaults to true for direct
	// deposits, bank transfers stay draft.
	PostPayment bool

	Method        DepositMethod
	TransactionID string
	Reference     string
	Bank          string
	AccountNumber string
	ImageURL      string

	// Ref is the fallback reference when no payment is created. Defaults
	// to the payer contact.
	Ref DocumentRef
}

// Deposit posts a credit entry (issued = amount), optionally backed by a
// payment document, and rewrites the cached balance from the posted
// entry set.
func (l *Ledger) Deposit(ctx context.Context, in DepositInput) (LedgerEntry, error) {
	unlock := l.locks.lock(in.WalletID)
	defer unlock()
	return l.depositLocked(ctx, in)
}

func (l *Ledger) depositLocked(ctx context.Context, in DepositInput) (LedgerEntry, error) {
	w, err := l.wallets.Get(ctx, in.WalletID)
	if err != nil {
		return LedgerEntry{}, err
	}
	status := in.Status
	if status == "" {
		status = StatusPosted
	}
	method := in.Method
	if method == "" {
		method = MethodDirect
	}

	ref := in.Ref
	if in.CreatePayment {
		methodType := in.MethodType
		if methodType == "" {
			methodType = accounting.MethodCash
		}
		payment, err := l.factory.Payment(ctx, accounting.PaymentInput{
			CompanyID:     w.CompanyID,
			PartnerID:     in.PayerID,
			MethodType:    methodType,
			Amount:        in.Amount,
			Memo:          in.Description,
			TransactionID: in.TransactionID,
			Bank:          in.Bank,
			AccountNumber: in.AccountNumber,
			ImageURL:      in.ImageURL,
			Post:          in.PostPayment,
		})
		if err != nil {
			return LedgerEntry{}, err
		}
		ref = PaymentRef(payment.ID)
	}
	if ref.IsZero() {
		ref = ContactRef(in.PayerID)
	}

	entry := LedgerEntry{
		ID:            uuid.NewString(),
		WalletID:      in.WalletID,
		Description:   in.Description,
		Issued:        in.Amount,
		Used:          decimal.Zero,
		Status:        status,
		Ref:           ref,
		Method:        method,
		Reference:     in.Reference,
		Bank:          in.Bank,
		AccountNumber: in.AccountNumber,
		CreatedAt:     time.Now().UTC(),
	}
	if err := l.entries.Append(ctx, entry); err != nil {
		return LedgerEntry{}, err
	}

	if err := l.writeBalance(ctx, in.WalletID); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

// UseInput parameterizes a used-style debit (subscription wallet payment).
type UseInput struct {
	WalletID    string
	Amount      decimal.Decimal
	Description string
	Ref         DocumentRef
}

// Use appends a posted entry debiting the wallet through the used
// field, guarding the posted balance under the wallet lock.
func (l *Ledger) Use(ctx context.Context, in UseInput) (LedgerEntry, error) {
	unlock := l.locks.lock(in.WalletID)
	defer unlock()

	balance, err := l.PostedBalance(ctx, in.WalletID)
	if err != nil {
		return LedgerEntry{}, err
	}
	if in.Amount.GreaterThan(balance) {
		return LedgerEntry{}, ErrInsufficientBalance
	}

	entry := LedgerEntry{
		ID:          uuid.NewString(),
		WalletID:    in.WalletID,
		Description: in.Description,
		Issued:      decimal.Zero,
		Used:        in.Amount,
		Status:      StatusPosted,
		Ref:         in.Ref,
		Method:      MethodDirect,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.entries.Append(ctx, entry); err != nil {
		return LedgerEntry{}, err
	}
	if err := l.writeBalance(ctx, in.WalletID); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

// Repoint re-links a ledger entry to a different justifying document, used
// when a wallet transfer document supersedes the provisional contact ref.
func (l *Ledger) Repoint(ctx context.Context, entryID string, ref DocumentRef) error {
	return l.entries.SetRef(ctx, entryID, ref)
}

// ConfirmEntry transitions the draft entry backing a document to posted and
// rewrites the wallet balance.
func (l *Ledger) ConfirmEntry(ctx context.Context, ref DocumentRef) (LedgerEntry, error) {
	entry, err := l.entries.FindByRef(ctx, ref)
	if err != nil {
		return LedgerEntry{}, err
	}

	unlock := l.locks.lock(entry.WalletID)
	defer unlock()

	if entry.Status != StatusPosted {
		if err := l.entries.SetStatus(ctx, entry.ID, StatusPosted); err != nil {
			return LedgerEntry{}, err
		}
		entry.Status = StatusPosted
	}
	if err := l.writeBalance(ctx, entry.WalletID); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

// writeBalance re-derives the posted balance and caches it on the wallet.
func (l *Ledger) writeBalance(ctx context.Context, walletID string) error {
	balance, err := l.PostedBalance(ctx, walletID)
	if err != nil {
		return err
	}
	return l.wallets.SetBalance(ctx, walletID, balance)
}
