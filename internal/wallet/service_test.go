package wallet

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/caram-platform/caram-ledger/internal/accounting"
	"github.com/caram-platform/caram-ledger/internal/logging"
	"github.com/caram-platform/caram-ledger/internal/notification"
)

type stubDirectory map[string]ContactInfo

func (d stubDirectory) Lookup(_ context.Context, _, contactID string) (ContactInfo, error) {
	info, ok := d[contactID]
	if !ok {
		return ContactInfo{}, ErrContactNotFound
	}
	return info, nil
}

type serviceFixture struct {
	*ledgerFixture
	service *Service
}

func newServiceFixture(t *testing.T, contacts stubDirectory) *serviceFixture {
	t.Helper()
	lf := newLedgerFixture(t)
	factory := accounting.NewFactory(lf.books, accounting.StaticConfig{Config: testCompanyConfig()})
	logger := logging.Discard()
	svc := NewService(lf.wallets, lf.entries, lf.ledger, factory, contacts,
		notification.NewLoggerNotifier(logger), logger)
	return &serviceFixture{ledgerFixture: lf, service: svc}
}

func TestAddTransactionDirectPostsImmediately(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{
		"rider-1": {ID: "rider-1", Name: "Abebe", Type: "rider"},
	})

	res, err := f.service.AddTransaction(context.Background(), AddTransactionInput{
		CompanyID: "co-1",
		ContactID: "rider-1",
		Amount:    decimal.NewFromInt(150),
		Kind:      KindDirect,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPosted, res.Status)
	require.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(150)))

	payments := f.books.DocumentsOfKind(accounting.KindPayment)
	require.Len(t, payments, 1)
	require.Equal(t, accounting.StatePosted, payments[0].State)
	require.Equal(t, payments[0].ID, res.DocumentID)
}

func TestEnsureConcurrentFirstTouchCreatesOneWallet(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{
		"rider-1": {ID: "rider-1", Name: "Abebe", Type: "rider"},
	})

	const n = 8
	var wg sync.WaitGroup
	ids := make(chan string, n)
	errs := make(chan error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			w, err := f.service.Ensure(context.Background(), "co-1", "rider-1", "")
			if err != nil {
				errs <- err
				return
			}
			ids <- w.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	seen := map[string]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	require.Len(t, seen, 1, "first touch split the ledger across wallets")
}

func TestAddTransactionBankTransferStaysDraft(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{
		"rider-1": {ID: "rider-1", Name: "Abebe", Type: "rider"},
	})

	res, err := f.service.AddTransaction(context.Background(), AddTransactionInput{
		CompanyID:     "co-1",
		ContactID:     "rider-1",
		Amount:        decimal.NewFromInt(90),
		Kind:          KindBankTransfer,
		TransactionID: "txn-42",
		Bank:          "CBE",
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, res.Status)
	require.True(t, res.BalanceAfter.IsZero(), "draft transfer counted before confirmation")

	payments := f.books.DocumentsOfKind(accounting.KindPayment)
	require.Len(t, payments, 1)
	require.Equal(t, accounting.StateDraft, payments[0].State)
	require.Equal(t, "txn-42", payments[0].TransactionID)
}

func TestAddTransactionPointsBacksCreditNote(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{
		"rider-1": {ID: "rider-1", Name: "Abebe", Type: "rider"},
	})

	res, err := f.service.AddTransaction(context.Background(), AddTransactionInput{
		CompanyID: "co-1",
		ContactID: "rider-1",
		Amount:    decimal.NewFromInt(25),
		Kind:      KindPoints,
	})
	require.NoError(t, err)
	require.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(25)))

	require.Empty(t, f.books.DocumentsOfKind(accounting.KindPayment))
	notes := f.books.DocumentsOfKind(accounting.KindCreditNote)
	require.Len(t, notes, 1)
}

func TestAddTransactionUnknownContact(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{})

	_, err := f.service.AddTransaction(context.Background(), AddTransactionInput{
		CompanyID: "co-1",
		ContactID: "ghost",
		Amount:    decimal.NewFromInt(10),
	})
	require.ErrorIs(t, err, ErrContactNotFound)
}

func TestWithdrawRejectsInsufficientBalanceBeforeDocuments(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{
		"rider-1": {ID: "rider-1", Name: "Abebe", Type: "rider"},
	})
	_, err := f.service.AddTransaction(context.Background(), AddTransactionInput{
		CompanyID: "co-1", ContactID: "rider-1", Amount: decimal.NewFromInt(30),
	})
	require.NoError(t, err)
	before := len(f.books.Documents())

	_, err = f.service.Withdraw(context.Background(), WalletWithdrawInput{
		CompanyID: "co-1",
		ContactID: "rider-1",
		Amount:    decimal.NewFromInt(100),
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Len(t, f.books.Documents(), before, "rejected withdrawal created documents")
}

func TestWithdrawReportsProvisionalBalance(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{
		"rider-1": {ID: "rider-1", Name: "Abebe", Type: "rider"},
	})
	_, err := f.service.AddTransaction(context.Background(), AddTransactionInput{
		CompanyID: "co-1", ContactID: "rider-1", Amount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	res, err := f.service.Withdraw(context.Background(), WalletWithdrawInput{
		CompanyID:     "co-1",
		ContactID:     "rider-1",
		Amount:        decimal.NewFromInt(40),
		TransactionID: "wd-1",
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, res.Status)
	require.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(60)))

	// The cached balance only moves when the transfer is confirmed.
	w, err := f.service.Balance(context.Background(), "co-1", "rider-1")
	require.NoError(t, err)
	require.True(t, w.Balance.Equal(decimal.NewFromInt(100)))

	payments := f.books.DocumentsOfKind(accounting.KindPayment)
	require.Len(t, payments, 2)
	var outbound accounting.Document
	for _, p := range payments {
		if p.Direction == accounting.Outbound {
			outbound = p
		}
	}
	require.Equal(t, accounting.StateDraft, outbound.State)
}

func TestConfirmTransactionPromotesDraft(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{
		"rider-1": {ID: "rider-1", Name: "Abebe", Type: "rider"},
	})
	_, err := f.service.AddTransaction(context.Background(), AddTransactionInput{
		CompanyID:     "co-1",
		ContactID:     "rider-1",
		Amount:        decimal.NewFromInt(90),
		Kind:          KindBankTransfer,
		TransactionID: "txn-42",
	})
	require.NoError(t, err)

	res, err := f.service.ConfirmTransaction(context.Background(), "co-1", "txn-42")
	require.NoError(t, err)
	require.Equal(t, StatusPosted, res.Status)
	require.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(90)))

	payments := f.books.DocumentsOfKind(accounting.KindPayment)
	require.Len(t, payments, 1)
	require.Equal(t, accounting.StatePosted, payments[0].State)
}

func TestDeclineTransactionCancelsPayment(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{
		"rider-1": {ID: "rider-1", Name: "Abebe", Type: "rider"},
	})
	_, err := f.service.AddTransaction(context.Background(), AddTransactionInput{
		CompanyID:     "co-1",
		ContactID:     "rider-1",
		Amount:        decimal.NewFromInt(90),
		Kind:          KindBankTransfer,
		TransactionID: "txn-43",
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DeclineTransaction(context.Background(), "co-1", "txn-43", "blurry receipt"))

	payments := f.books.DocumentsOfKind(accounting.KindPayment)
	require.Len(t, payments, 1)
	require.Equal(t, accounting.StateCancelled, payments[0].State)

	// The draft entry never posted, so the balance is untouched.
	w, err := f.service.Balance(context.Background(), "co-1", "rider-1")
	require.NoError(t, err)
	require.True(t, w.Balance.IsZero())
}

func TestConfirmUnknownTransaction(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{})
	_, err := f.service.ConfirmTransaction(context.Background(), "co-1", "missing")
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestManualEntryAdjustsBalance(t *testing.T) {
	f := newServiceFixture(t, stubDirectory{
		"driver-1": {ID: "driver-1", Name: "Kebede", Type: "driver"},
	})

	res, err := f.service.ManualEntry(context.Background(), ManualEntryInput{
		CompanyID:   "co-1",
		ContactID:   "driver-1",
		Issued:      decimal.NewFromInt(70),
		Description: "migration credit",
	})
	require.NoError(t, err)
	require.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(70)))

	res, err = f.service.ManualEntry(context.Background(), ManualEntryInput{
		CompanyID:   "co-1",
		ContactID:   "driver-1",
		Used:        decimal.NewFromInt(20),
		Description: "correction",
	})
	require.NoError(t, err)
	require.True(t, res.BalanceAfter.Equal(decimal.NewFromInt(50)))
}
