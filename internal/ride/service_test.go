package ride

import (
	"context"
	"testing"

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
	rides   Repository
	wallets *wallet.Service
	service *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	books := accounting.NewMemoryBooks()
	books.SetDefaultReceivableAccount("AR")
	factory := accounting.NewFactory(books, accounting.StaticConfig{Config: testCompanyConfig()})
	walletRepo := wallet.NewMemoryRepository()
	entryRepo := wallet.NewMemoryEntryRepository()
	ledger := wallet.NewLedger(walletRepo, entryRepo, factory)

	directory := stubDirectory{
		"rider-1":  {ID: "rider-1", Name: "Abebe", Type: "rider"},
		"driver-1": {ID: "driver-1", Name: "Kebede", Type: "driver"},
	}
	logger := logging.Discard()
	walletSvc := wallet.NewService(walletRepo, entryRepo, ledger, factory, directory,
		notification.NewLoggerNotifier(logger), logger)
	rides := NewMemoryRepository()
	svc := NewService(rides, walletSvc, directory, NewEngine(ledger, factory), logger)

	return &serviceFixture{books: books, rides: rides, wallets: walletSvc, service: svc}
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

func TestPayMarksRidePaid(t *testing.T) {
	f := newServiceFixture(t)
	f.topUp(t, "rider-1", 100)

	res, err := f.service.Pay(context.Background(), PayInput{
		CompanyID:  "co-1",
		RideID:     "ride-7",
		RiderID:    "rider-1",
		DriverID:   "driver-1",
		Fare:       decimal.NewFromInt(100),
		WalletPaid: decimal.NewFromInt(100),
		Commission: decimal.NewFromInt(10),
		Mode:       "wallet_paid",
	})
	require.NoError(t, err)
	require.Equal(t, CaseWalletOnly, res.Outcome.Case)

	stored, err := f.rides.FindByRideID(context.Background(), "co-1", "ride-7")
	require.NoError(t, err)
	require.Equal(t, StatePaid, stored.State)
	require.False(t, stored.PaidAt.IsZero())
}

func TestPayRejectsAlreadyPaidRide(t *testing.T) {
	f := newServiceFixture(t)
	f.topUp(t, "rider-1", 200)

	in := PayInput{
		CompanyID:  "co-1",
		RideID:     "ride-7",
		RiderID:    "rider-1",
		DriverID:   "driver-1",
		Fare:       decimal.NewFromInt(100),
		WalletPaid: decimal.NewFromInt(100),
		Commission: decimal.NewFromInt(10),
		Mode:       "wallet_paid",
	}
	_, err := f.service.Pay(context.Background(), in)
	require.NoError(t, err)
	before := len(f.books.Documents())

	_, err = f.service.Pay(context.Background(), in)
	require.ErrorIs(t, err, ErrAlreadyPaid)
	require.Len(t, f.books.Documents(), before, "retry of a paid ride created documents")
}

func TestPayInsufficientWalletLeavesRideDraft(t *testing.T) {
	f := newServiceFixture(t)
	f.topUp(t, "rider-1", 30)

	in := PayInput{
		CompanyID:  "co-1",
		RideID:     "ride-8",
		RiderID:    "rider-1",
		DriverID:   "driver-1",
		Fare:       decimal.NewFromInt(100),
		WalletPaid: decimal.NewFromInt(100),
		Commission: decimal.NewFromInt(10),
		Mode:       "wallet_paid",
	}
	_, err := f.service.Pay(context.Background(), in)
	require.ErrorIs(t, err, wallet.ErrInsufficientBalance)

	stored, err := f.rides.FindByRideID(context.Background(), "co-1", "ride-8")
	require.NoError(t, err)
	require.Equal(t, StateDraft, stored.State)

	// The draft survives for a retry after a top-up.
	f.topUp(t, "rider-1", 70)
	_, err = f.service.Pay(context.Background(), in)
	require.NoError(t, err)
}

func TestPayValidatesInput(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Pay(context.Background(), PayInput{
		CompanyID: "co-1",
		RiderID:   "rider-1",
		DriverID:  "driver-1",
		Fare:      decimal.NewFromInt(100),
		Mode:      "cash_only",
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.Pay(context.Background(), PayInput{
		CompanyID: "co-1",
		RideID:    "ride-9",
		RiderID:   "rider-1",
		DriverID:  "driver-1",
		Fare:      decimal.NewFromInt(100),
		Mode:      "crypto",
	})
	require.ErrorIs(t, err, ErrInvalidMode)

	_, err = f.service.Pay(context.Background(), PayInput{
		CompanyID: "co-1",
		RideID:    "ride-9",
		RiderID:   "ghost",
		DriverID:  "driver-1",
		Fare:      decimal.NewFromInt(100),
		Mode:      "cash_only",
	})
	require.ErrorIs(t, err, wallet.ErrContactNotFound)
}
