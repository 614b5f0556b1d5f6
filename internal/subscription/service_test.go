package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/caram-platform/caram-ledger/internal/accounting"
	"github.com/caram-platform/caram-ledger/internal/logging"
	"github.com/caram-platform/caram-ledger/internal/notification"
	"github.com/caram-platform/caram-ledger/internal/wallet"
)

type stubDirectory map[string]wallet.ContactInfo

func (d stubDirectory) Lookup(_ context.Context, _, contactID string) (wallet.ContactInfo, error) {
	info, ok := d[contactID]
	if !ok {
		return wallet.ContactInfo{}, wallet.ErrContactNotFound
	}
	return info, nil
}

type serviceFixture struct {
	books   *accounting.MemoryBooks
	subs    Repository
	entries wallet.EntryRepository
	ledger  *wallet.Ledger
	wallets *wallet.Service
	service *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	books := accounting.NewMemoryBooks()
	books.SetDefaultReceivableAccount("AR")
	factory := accounting.NewFactory(books, accounting.StaticConfig{Config: accounting.CompanyConfig{
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
	}})
	walletRepo := wallet.NewMemoryRepository()
	entryRepo := wallet.NewMemoryEntryRepository()
	ledger := wallet.NewLedger(walletRepo, entryRepo, factory)
	directory := stubDirectory{
		"driver-1": {ID: "driver-1", Name: "Kebede", Type: "driver"},
	}
	logger := logging.Discard()
	walletSvc := wallet.NewService(walletRepo, entryRepo, ledger, factory, directory,
		notification.NewLoggerNotifier(logger), logger)
	subs := NewMemoryRepository()
	catalog := NewMemoryCatalog(map[Type]Product{
		TypeVIP:  {ProductID: "sub-vip", Name: "VIP subscription"},
		TypeTaxi: {ProductID: "sub-taxi", Name: "Taxi subscription"},
	})

	return &serviceFixture{
		books:   books,
		subs:    subs,
		entries: entryRepo,
		ledger:  ledger,
		wallets: walletSvc,
		service: NewService(subs, catalog, walletSvc, ledger, factory, directory, logger),
	}
}

func (f *serviceFixture) topUp(t *testing.T, contactID string, amount int64) {
	t.Helper()
	_, err := f.wallets.AddTransaction(context.Background(), wallet.AddTransactionInput{
		CompanyID: "co-1",
		ContactID: contactID,
		Amount:    decimal.NewFromInt(amount),
		Kind:      wallet.KindDirect,
	})
	require.NoError(t, err)
}

func TestCreateDebitsWalletAndInvoices(t *testing.T) {
	f := newServiceFixture(t)
	f.topUp(t, "driver-1", 500)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	res, err := f.service.Create(context.Background(), CreateInput{
		CompanyID:  "co-1",
		ContactID:  "driver-1",
		PlatformID: "plat-9",
		Type:       TypeVIP,
		Price:      decimal.NewFromInt(300),
		StartDate:  start,
		EndDate:    start.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.InvoiceID)
	require.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(200)))

	stored, err := f.subs.Get(context.Background(), "co-1", res.Subscription.ID)
	require.NoError(t, err)
	require.Equal(t, res.InvoiceID, stored.InvoiceID)

	invoices := f.books.DocumentsOfKind(accounting.KindInvoice)
	require.Len(t, invoices, 1)
	require.Equal(t, accounting.StatePosted, invoices[0].State)
	require.True(t, invoices[0].Total().Equal(decimal.NewFromInt(300)))

	w, err := f.wallets.Balance(context.Background(), "co-1", "driver-1")
	require.NoError(t, err)

	entries, err := f.entries.ListByWallet(context.Background(), w.ID)
	require.NoError(t, err)
	var used *wallet.LedgerEntry
	for i := range entries {
		if entries[i].Used.IsPositive() {
			used = &entries[i]
		}
	}
	require.NotNil(t, used)
	require.Equal(t, wallet.RefSubscription, used.Ref.Kind)
	require.Equal(t, res.Subscription.ID, used.Ref.ID)
}

func TestCreateRejectsInsufficientBalance(t *testing.T) {
	f := newServiceFixture(t)
	f.topUp(t, "driver-1", 100)
	before := len(f.books.Documents())

	_, err := f.service.Create(context.Background(), CreateInput{
		CompanyID: "co-1",
		ContactID: "driver-1",
		Type:      TypeVIP,
		Price:     decimal.NewFromInt(300),
	})
	require.ErrorIs(t, err, wallet.ErrInsufficientBalance)

	require.Len(t, f.books.Documents(), before, "rejected purchase created documents")
	w, err := f.wallets.Balance(context.Background(), "co-1", "driver-1")
	require.NoError(t, err)
	require.True(t, w.Balance.Equal(decimal.NewFromInt(100)))
}

func TestCreateRejectsNonPositivePrice(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.service.Create(context.Background(), CreateInput{
		CompanyID: "co-1",
		ContactID: "driver-1",
		Type:      TypeVIP,
		Price:     decimal.Zero,
	})
	require.Error(t, err)
}

func TestCreateUnknownType(t *testing.T) {
	f := newServiceFixture(t)
	f.topUp(t, "driver-1", 500)
	before := len(f.books.Documents())

	_, err := f.service.Create(context.Background(), CreateInput{
		CompanyID: "co-1",
		ContactID: "driver-1",
		Type:      TypePinky,
		Price:     decimal.NewFromInt(100),
	})
	require.Error(t, err)

	// Catalog miss happens before any write.
	require.Len(t, f.books.Documents(), before)
}
