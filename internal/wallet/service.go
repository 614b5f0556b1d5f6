package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caram-platform/caram-ledger/internal/accounting"
	"github.com/caram-platform/caram-ledger/internal/notification"
)

var (
	// ErrInvalidAmount rejects non-positive transaction amounts.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrTransactionNotFound indicates no bank transfer matches the
	// platform transaction id.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// TransactionKind selects how a wallet top-up is funded.
type TransactionKind string

const (
	// KindDirect is a cash/tele deposit recorded with a posted payment.
	KindDirect TransactionKind = "direct"
	// KindBankTransfer is a bank deposit pending back-office confirmation.
	KindBankTransfer TransactionKind = "bank_transfer"
	// KindPoints is a loyalty credit backed by a credit note, no cash.
	KindPoints TransactionKind = "points"
)

// Service exposes the wallet API operations: top-ups, withdrawals, the
// bank-transfer confirmation flow and manual adjustments.
type Service struct {
	wallets  Repository
	entries  EntryRepository
	ledger   *Ledger
	factory  *accounting.Factory
	contacts ContactDirectory
	notifier notification.Notifier
	logger   *slog.Logger

	// ensureLocks serializes first-touch wallet creation per contact so
	// concurrent requests cannot create two wallets for one contact.
	ensureLocks *lockTable
}

// NewService wires the wallet service.
func NewService(wallets Repository, entries EntryRepository, ledger *Ledger, factory *accounting.Factory, contacts ContactDirectory, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		wallets:     wallets,
		entries:     entries,
		ledger:      ledger,
		factory:     factory,
		contacts:    contacts,
		notifier:    notifier,
		logger:      logger,
		ensureLocks: newLockTable(),
	}
}

// Ensure returns the contact's wallet, creating it on first use. Creation
// runs under a per-contact lock with a re-check, so two concurrent
// first-touch requests resolve to the same wallet.
func (s *Service) Ensure(ctx context.Context, companyID, contactID, currency string) (Wallet, error) {
	w, err := s.wallets.FindByContact(ctx, companyID, contactID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Wallet{}, err
	}

	unlock := s.ensureLocks.lock(companyID + "/" + contactID)
	defer unlock()

	w, err = s.wallets.FindByContact(ctx, companyID, contactID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Wallet{}, err
	}
	w = Wallet{
		ID:        uuid.NewString(),
		ContactID: contactID,
		CompanyID: companyID,
		Currency:  currency,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.wallets.Create(ctx, w); err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// AddTransactionInput is a wallet top-up request.
type AddTransactionInput struct {
	CompanyID     string
	ContactID     string
	Amount        decimal.Decimal
	Kind          TransactionKind
	MethodType    string
	TransactionID string
	Reference     string
	Bank          string
	AccountNumber string
	ImageURL      string
	Description   string
}

// TransactionResult reports the outcome of a wallet mutation. DocumentID
// is the backing accounting document, when one was created.
type TransactionResult struct {
	EntryID      string
	WalletID     string
	DocumentID   string
	Status       EntryStatus
	BalanceAfter decimal.Decimal
}

// AddTransaction credits a contact's wallet. Direct deposits post
// immediately; bank transfers stay draft until confirmed; points top-ups
// are backed by a credit note instead of a payment.
func (s *Service) AddTransaction(ctx context.Context, in AddTransactionInput) (TransactionResult, error) {
	if !in.Amount.IsPositive() {
		return TransactionResult{}, ErrInvalidAmount
	}
	contact, err := s.contacts.Lookup(ctx, in.CompanyID, in.ContactID)
	if err != nil {
		return TransactionResult{}, err
	}
	if err := s.factory.ValidateWalletAccounts(ctx, in.CompanyID, contact.Type); err != nil {
		return TransactionResult{}, err
	}
	w, err := s.Ensure(ctx, in.CompanyID, in.ContactID, "")
	if err != nil {
		return TransactionResult{}, err
	}

	description := in.Description
	if description == "" {
		description = fmt.Sprintf("Wallet top-up for %s", contact.Name)
	}

	var entry LedgerEntry
	switch in.Kind {
	case KindBankTransfer:
		entry, err = s.ledger.Deposit(ctx, DepositInput{
			WalletID:      w.ID,
			Amount:        in.Amount,
			Description:   description,
			Status:        StatusDraft,
			PayerID:       in.ContactID,
			CreatePayment: true,
			MethodType:    accounting.MethodBank,
			PostPayment:   false,
			Method:        MethodBankTransfer,
			TransactionID: in.TransactionID,
			Reference:     in.Reference,
			Bank:          in.Bank,
			AccountNumber: in.AccountNumber,
			ImageURL:      in.ImageURL,
		})
	case KindPoints:
		var note accounting.Document
		note, err = s.factory.PointsCreditNote(ctx, in.CompanyID, in.ContactID, in.Amount)
		if err != nil {
			return TransactionResult{}, err
		}
		entry, err = s.ledger.Deposit(ctx, DepositInput{
			WalletID:    w.ID,
			Amount:      in.Amount,
			Description: description,
			Status:      StatusPosted,
			PayerID:     in.ContactID,
			Ref:         CreditNoteRef(note.ID),
		})
	default:
		methodType := in.MethodType
		if methodType == "" {
			methodType = accounting.MethodCash
		}
		entry, err = s.ledger.Deposit(ctx, DepositInput{
			WalletID:      w.ID,
			Amount:        in.Amount,
			Description:   description,
			Status:        StatusPosted,
			PayerID:       in.ContactID,
			CreatePayment: true,
			MethodType:    methodType,
			PostPayment:   true,
			TransactionID: in.TransactionID,
			Reference:     in.Reference,
		})
	}
	if err != nil {
		return TransactionResult{}, err
	}

	balance, err := s.ledger.PostedBalance(ctx, w.ID)
	if err != nil {
		return TransactionResult{}, err
	}
	return TransactionResult{
		EntryID:      entry.ID,
		WalletID:     w.ID,
		DocumentID:   documentID(entry.Ref),
		Status:       entry.Status,
		BalanceAfter: balance,
	}, nil
}

// WalletWithdrawInput is a cash-out request against a contact's wallet.
type WalletWithdrawInput struct {
	CompanyID     string
	ContactID     string
	Amount        decimal.Decimal
	TransactionID string
	Bank          string
	AccountNumber string
	Description   string
}

// Withdraw debits the wallet for a bank cash-out. The balance guard runs
// before any document is created; both the outbound payment and the
// ledger entry stay draft until the transfer is confirmed, so the cached
// balance is untouched. BalanceAfter reports the provisional value.
func (s *Service) Withdraw(ctx context.Context, in WalletWithdrawInput) (TransactionResult, error) {
	if !in.Amount.IsPositive() {
		return TransactionResult{}, ErrInvalidAmount
	}
	contact, err := s.contacts.Lookup(ctx, in.CompanyID, in.ContactID)
	if err != nil {
		return TransactionResult{}, err
	}
	if err := s.factory.ValidateWalletAccounts(ctx, in.CompanyID, contact.Type); err != nil {
		return TransactionResult{}, err
	}
	w, err := s.wallets.FindByContact(ctx, in.CompanyID, in.ContactID)
	if err != nil {
		return TransactionResult{}, err
	}

	balance, err := s.ledger.PostedBalance(ctx, w.ID)
	if err != nil {
		return TransactionResult{}, err
	}
	if in.Amount.GreaterThan(balance) {
		return TransactionResult{}, ErrInsufficientBalance
	}

	description := in.Description
	if description == "" {
		description = fmt.Sprintf("Wallet withdrawal for %s", contact.Name)
	}
	payment, err := s.factory.Payment(ctx, accounting.PaymentInput{
		CompanyID:     in.CompanyID,
		PartnerID:     in.ContactID,
		MethodType:    accounting.MethodBank,
		Amount:        in.Amount.Neg(),
		Memo:          description,
		TransactionID: in.TransactionID,
		Bank:          in.Bank,
		AccountNumber: in.AccountNumber,
		Post:          false,
	})
	if err != nil {
		return TransactionResult{}, err
	}

	entry, err := s.ledger.Withdraw(ctx, WithdrawInput{
		WalletID:      w.ID,
		Amount:        in.Amount,
		Description:   description,
		Status:        StatusDraft,
		PayerID:       in.ContactID,
		Ref:           PaymentRef(payment.ID),
		Reference:     in.TransactionID,
		Bank:          in.Bank,
		AccountNumber: in.AccountNumber,
	})
	if err != nil {
		return TransactionResult{}, err
	}

	return TransactionResult{
		EntryID:      entry.ID,
		WalletID:     w.ID,
		DocumentID:   payment.ID,
		Status:       entry.Status,
		BalanceAfter: balance.Sub(in.Amount),
	}, nil
}

// ConfirmTransaction posts the bank-transfer payment matching the
// platform transaction id, promotes its draft ledger entry and notifies
// the platform asynchronously.
func (s *Service) ConfirmTransaction(ctx context.Context, companyID, transactionID string) (TransactionResult, error) {
	payment, err := s.factory.Books().FindPaymentByTransactionID(ctx, companyID, transactionID)
	if err != nil {
		if errors.Is(err, accounting.ErrDocumentNotFound) {
			return TransactionResult{}, ErrTransactionNotFound
		}
		return TransactionResult{}, err
	}
	if payment.State != accounting.StatePosted {
		if _, err := s.factory.Books().Post(ctx, payment.ID); err != nil {
			return TransactionResult{}, err
		}
	}

	entry, err := s.ledger.ConfirmEntry(ctx, PaymentRef(payment.ID))
	if err != nil {
		return TransactionResult{}, err
	}
	balance, err := s.ledger.PostedBalance(ctx, entry.WalletID)
	if err != nil {
		return TransactionResult{}, err
	}

	if err := s.notifier.Send(ctx, notification.Update{
		TransactionID: transactionID,
		Status:        notification.StatusConfirm,
		Bank:          payment.Bank,
		AccountNumber: payment.AccountNumber,
	}); err != nil {
		s.logger.Warn("confirm notification failed", "transaction_id", transactionID, "error", err)
	}

	return TransactionResult{
		EntryID:      entry.ID,
		WalletID:     entry.WalletID,
		DocumentID:   payment.ID,
		Status:       entry.Status,
		BalanceAfter: balance,
	}, nil
}

// DeclineTransaction cancels the bank-transfer payment matching the
// platform transaction id. The draft ledger entry never posts, so the
// balance is unchanged.
func (s *Service) DeclineTransaction(ctx context.Context, companyID, transactionID, reason string) error {
	payment, err := s.factory.Books().FindPaymentByTransactionID(ctx, companyID, transactionID)
	if err != nil {
		if errors.Is(err, accounting.ErrDocumentNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}
	if _, err := s.factory.Books().Cancel(ctx, payment.ID, reason); err != nil {
		return err
	}

	if err := s.notifier.Send(ctx, notification.Update{
		TransactionID: transactionID,
		Status:        notification.StatusDecline,
		Bank:          payment.Bank,
		AccountNumber: payment.AccountNumber,
		DeclineReason: reason,
	}); err != nil {
		s.logger.Warn("decline notification failed", "transaction_id", transactionID, "error", err)
	}
	return nil
}

// ManualEntryInput is a back-office ledger adjustment.
type ManualEntryInput struct {
	CompanyID   string
	ContactID   string
	Issued      decimal.Decimal
	Used        decimal.Decimal
	Description string
}

// ManualEntry appends a posted adjustment entry straight to the ledger,
// with no backing document beyond the contact itself.
func (s *Service) ManualEntry(ctx context.Context, in ManualEntryInput) (TransactionResult, error) {
	if in.Issued.IsZero() && in.Used.IsZero() {
		return TransactionResult{}, ErrInvalidAmount
	}
	if _, err := s.contacts.Lookup(ctx, in.CompanyID, in.ContactID); err != nil {
		return TransactionResult{}, err
	}
	w, err := s.Ensure(ctx, in.CompanyID, in.ContactID, "")
	if err != nil {
		return TransactionResult{}, err
	}

	net := in.Issued.Sub(in.Used)
	var entry LedgerEntry
	if net.IsNegative() {
		entry, err = s.ledger.Withdraw(ctx, WithdrawInput{
			WalletID:    w.ID,
			Amount:      net.Neg(),
			Description: in.Description,
			Status:      StatusPosted,
			PayerID:     in.ContactID,
		})
	} else {
		entry, err = s.ledger.Deposit(ctx, DepositInput{
			WalletID:    w.ID,
			Amount:      net,
			Description: in.Description,
			Status:      StatusPosted,
			PayerID:     in.ContactID,
		})
	}
	if err != nil {
		return TransactionResult{}, err
	}

	balance, err := s.ledger.PostedBalance(ctx, w.ID)
	if err != nil {
		return TransactionResult{}, err
	}
	return TransactionResult{
		EntryID:      entry.ID,
		WalletID:     w.ID,
		DocumentID:   documentID(entry.Ref),
		Status:       entry.Status,
		BalanceAfter: balance,
	}, nil
}

// documentID extracts the accounting document id from an entry reference.
// Bare contact and subscription references are not documents.
func documentID(ref DocumentRef) string {
	switch ref.Kind {
	case RefPayment, RefInvoice, RefCreditNote, RefTransferEntry:
		return ref.ID
	default:
		return ""
	}
}

// Balance returns the wallet and its re-derived posted balance.
func (s *Service) Balance(ctx context.Context, companyID, contactID string) (Wallet, error) {
	w, err := s.wallets.FindByContact(ctx, companyID, contactID)
	if err != nil {
		return Wallet{}, err
	}
	balance, err := s.ledger.PostedBalance(ctx, w.ID)
	if err != nil {
		return Wallet{}, err
	}
	w.Balance = balance
	return w, nil
}

// Entries lists the ledger entries of a contact's wallet, oldest first.
func (s *Service) Entries(ctx context.Context, companyID, contactID string) ([]LedgerEntry, error) {
	w, err := s.wallets.FindByContact(ctx, companyID, contactID)
	if err != nil {
		return nil, err
	}
	return s.entries.ListByWallet(ctx, w.ID)
}
