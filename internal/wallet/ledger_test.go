package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/caram-platform/caram-ledger/internal/accounting"
)

func testCompanyConfig() accounting.CompanyConfig {
	return accounting.CompanyConfig{
		CommissionProductID: "commission",
		FineProductID:       "fine",
		CouponProductID:     "coupon",
		PointsProductID:     "points",
		GeneralJournalID:    "GEN",
		PaymentJournals: map[string]string{
			accounting.MethodCash: "CASH",
			accounting.MethodBank: "BANK",
		},
		ExpenseAccountID:      "EXP",
		BankAccountID:         "BNK",
		RiderWalletAccountID:  "RWA",
		DriverWalletAccountID: "DWA",
	}
}

type ledgerFixture struct {
	books   *accounting.MemoryBooks
	wallets Repository
	entries EntryRepository
	ledger  *Ledger
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	books := accounting.NewMemoryBooks()
	books.SetDefaultReceivableAccount("AR")
	factory := accounting.NewFactory(books, accounting.StaticConfig{Config: testCompanyConfig()})
	wallets := NewMemoryRepository()
	entries := NewMemoryEntryRepository()
	return &ledgerFixture{
		books:   books,
		wallets: wallets,
		entries: entries,
		ledger:  NewLedger(wallets, entries, factory),
	}
}

func (f *ledgerFixture) newWallet(t *testing.T) Wallet {
	t.Helper()
	w := Wallet{
		ID:        uuid.NewString(),
		ContactID: uuid.NewString(),
		CompanyID: "co-1",
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.wallets.Create(context.Background(), w))
	return w
}

func (f *ledgerFixture) seed(t *testing.T, walletID string, amount int64) {
	t.Helper()
	_, err := f.ledger.Deposit(context.Background(), DepositInput{
		WalletID:    walletID,
		Amount:      decimal.NewFromInt(amount),
		Description: "seed",
		PayerID:     "seed",
	})
	require.NoError(t, err)
}

func TestWithdrawPostedRecomputesBalance(t *testing.T) {
	f := newLedgerFixture(t)
	w := f.newWallet(t)
	f.seed(t, w.ID, 100)

	entry, err := f.ledger.Withdraw(context.Background(), WithdrawInput{
		WalletID:    w.ID,
		Amount:      decimal.NewFromInt(30),
		Description: "cash out",
		PayerID:     w.ContactID,
	})
	require.NoError(t, err)
	require.True(t, entry.Issued.Equal(decimal.NewFromInt(-30)))
	require.Equal(t, StatusPosted, entry.Status)

	stored, err := f.wallets.Get(context.Background(), w.ID)
	require.NoError(t, err)
	require.True(t, stored.Balance.Equal(decimal.NewFromInt(70)), "got %s", stored.Balance)
}

func TestWithdrawDraftNeverWritesBalance(t *testing.T) {
	f := newLedgerFixture(t)
	w := f.newWallet(t)
	f.seed(t, w.ID, 100)

	_, err := f.ledger.Withdraw(context.Background(), WithdrawInput{
		WalletID:    w.ID,
		Amount:      decimal.NewFromInt(40),
		Description: "pending cash out",
		Status:      StatusDraft,
		PayerID:     w.ContactID,
	})
	require.NoError(t, err)

	stored, err := f.wallets.Get(context.Background(), w.ID)
	require.NoError(t, err)
	require.True(t, stored.Balance.Equal(decimal.NewFromInt(100)), "draft withdrawal changed cached balance")
}

func TestWithdrawEnforceBalanceRejectsWithoutSideEffects(t *testing.T) {
	f := newLedgerFixture(t)
	w := f.newWallet(t)

	_, err := f.ledger.Withdraw(context.Background(), WithdrawInput{
		WalletID:       w.ID,
		Amount:         decimal.NewFromInt(50),
		Description:    "over limit",
		PayerID:        w.ContactID,
		EnforceBalance: true,
		CreateInvoice:  true,
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	entries, err := f.entries.ListByWallet(context.Background(), w.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Empty(t, f.books.Documents())
}

func TestWithdrawCommissionInvoiceHasFineLine(t *testing.T) {
	f := newLedgerFixture(t)
	w := f.newWallet(t)

	entry, err := f.ledger.Withdraw(context.Background(), WithdrawInput{
		WalletID:      w.ID,
		Amount:        decimal.NewFromInt(15),
		Commission:    decimal.NewFromInt(10),
		Fine:          decimal.NewFromInt(5),
		Description:   "ride cut",
		PayerID:       w.ContactID,
		CreateInvoice: true,
	})
	require.NoError(t, err)
	require.Equal(t, RefInvoice, entry.Ref.Kind)

	invoices := f.books.DocumentsOfKind(accounting.KindInvoice)
	require.Len(t, invoices, 1)
	require.Equal(t, accounting.StatePosted, invoices[0].State)
	require.Len(t, invoices[0].Lines, 2)
	require.True(t, invoices[0].Total().Equal(decimal.NewFromInt(15)))
}

func TestWithdrawZeroCommissionStillInvoices(t *testing.T) {
	f := newLedgerFixture(t)
	w := f.newWallet(t)

	entry, err := f.ledger.Withdraw(context.Background(), WithdrawInput{
		WalletID:      w.ID,
		Amount:        decimal.Zero,
		Commission:    decimal.Zero,
		Description:   "free ride cut",
		PayerID:       w.ContactID,
		CreateInvoice: true,
	})
	require.NoError(t, err)
	require.Equal(t, RefInvoice, entry.Ref.Kind)

	invoices := f.books.DocumentsOfKind(accounting.KindInvoice)
	require.Len(t, invoices, 1)
	require.Len(t, invoices[0].Lines, 1)
	require.True(t, invoices[0].Total().IsZero())
}

func TestDepositCreatesPostedPayment(t *testing.T) {
	f := newLedgerFixture(t)
	w := f.newWallet(t)

	entry, err := f.ledger.Deposit(context.Background(), DepositInput{
		WalletID:      w.ID,
		Amount:        decimal.NewFromInt(200),
		Description:   "top-up",
		PayerID:       w.ContactID,
		CreatePayment: true,
		MethodType:    accounting.MethodCash,
		PostPayment:   true,
	})
	require.NoError(t, err)
	require.Equal(t, RefPayment, entry.Ref.Kind)

	payments := f.books.DocumentsOfKind(accounting.KindPayment)
	require.Len(t, payments, 1)
	require.Equal(t, accounting.StatePosted, payments[0].State)
	require.Equal(t, accounting.Inbound, payments[0].Direction)

	stored, err := f.wallets.Get(context.Background(), w.ID)
	require.NoError(t, err)
	require.True(t, stored.Balance.Equal(decimal.NewFromInt(200)))
}

func TestUseGuardsPostedBalance(t *testing.T) {
	f := newLedgerFixture(t)
	w := f.newWallet(t)
	f.seed(t, w.ID, 30)

	_, err := f.ledger.Use(context.Background(), UseInput{
		WalletID: w.ID,
		Amount:   decimal.NewFromInt(50),
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	entry, err := f.ledger.Use(context.Background(), UseInput{
		WalletID:    w.ID,
		Amount:      decimal.NewFromInt(30),
		Description: "subscription",
		Ref:         SubscriptionRef("sub-1"),
	})
	require.NoError(t, err)
	require.True(t, entry.Used.Equal(decimal.NewFromInt(30)))

	balance, err := f.ledger.PostedBalance(context.Background(), w.ID)
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestConfirmEntryPostsDraftAndRecomputes(t *testing.T) {
	f := newLedgerFixture(t)
	w := f.newWallet(t)

	ref := PaymentRef("pay-1")
	_, err := f.ledger.Deposit(context.Background(), DepositInput{
		WalletID:    w.ID,
		Amount:      decimal.NewFromInt(80),
		Description: "bank transfer",
		Status:      StatusDraft,
		PayerID:     w.ContactID,
		Ref:         ref,
	})
	require.NoError(t, err)

	stored, err := f.wallets.Get(context.Background(), w.ID)
	require.NoError(t, err)
	require.True(t, stored.Balance.IsZero(), "draft deposit counted before confirmation")

	entry, err := f.ledger.ConfirmEntry(context.Background(), ref)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, entry.Status)

	stored, err = f.wallets.Get(context.Background(), w.ID)
	require.NoError(t, err)
	require.True(t, stored.Balance.Equal(decimal.NewFromInt(80)))
}
