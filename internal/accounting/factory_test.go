package accounting

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testConfig() CompanyConfig {
	return CompanyConfig{
		CommissionProductID: "commission",
		FineProductID:       "fine",
		CouponProductID:     "coupon",
		PointsProductID:     "points",
		GeneralJournalID:    "GEN",
		PaymentJournals: map[string]string{
			MethodCash: "CASH",
			MethodBank: "BANK",
		},
		ExpenseAccountID:      "EXP",
		BankAccountID:         "BNK",
		RiderWalletAccountID:  "RWA",
		DriverWalletAccountID: "DWA",
	}
}

func newFactory(t *testing.T) (*Factory, *MemoryBooks) {
	t.Helper()
	books := NewMemoryBooks()
	books.SetDefaultReceivableAccount("AR")
	return NewFactory(books, StaticConfig{Config: testConfig()}), books
}

func TestCommissionInvoiceIncludesFineLineWhenPositive(t *testing.T) {
	f, _ := newFactory(t)

	doc, err := f.CommissionInvoice(context.Background(), "co-1", "driver-1",
		decimal.NewFromInt(10), decimal.NewFromInt(5), "ride-1")
	require.NoError(t, err)
	require.Equal(t, KindInvoice, doc.Kind)
	require.Equal(t, StatePosted, doc.State)
	require.Len(t, doc.Lines, 2)
	require.Equal(t, "commission", doc.Lines[0].ProductID)
	require.Equal(t, "fine", doc.Lines[1].ProductID)
	require.True(t, doc.Total().Equal(decimal.NewFromInt(15)))
}

func TestCommissionInvoiceOmitsZeroFine(t *testing.T) {
	f, _ := newFactory(t)

	doc, err := f.CommissionInvoice(context.Background(), "co-1", "driver-1",
		decimal.Zero, decimal.Zero, "ride-1")
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)
	require.True(t, doc.Total().IsZero())
}

func TestCommissionInvoiceRequiresProduct(t *testing.T) {
	books := NewMemoryBooks()
	cfg := testConfig()
	cfg.CommissionProductID = ""
	f := NewFactory(books, StaticConfig{Config: cfg})

	_, err := f.CommissionInvoice(context.Background(), "co-1", "driver-1",
		decimal.NewFromInt(10), decimal.Zero, "ride-1")
	require.ErrorIs(t, err, ErrNotConfigured)
	require.Empty(t, books.Documents())
}

func TestPaymentDirectionFollowsSign(t *testing.T) {
	f, _ := newFactory(t)

	in, err := f.Payment(context.Background(), PaymentInput{
		CompanyID:  "co-1",
		PartnerID:  "rider-1",
		MethodType: MethodCash,
		Amount:     decimal.NewFromInt(100),
		Post:       true,
	})
	require.NoError(t, err)
	require.Equal(t, Inbound, in.Direction)
	require.Equal(t, StatePosted, in.State)
	require.True(t, in.Amount.Equal(decimal.NewFromInt(100)))

	out, err := f.Payment(context.Background(), PaymentInput{
		CompanyID:  "co-1",
		PartnerID:  "rider-1",
		MethodType: MethodBank,
		Amount:     decimal.NewFromInt(-40),
	})
	require.NoError(t, err)
	require.Equal(t, Outbound, out.Direction)
	require.Equal(t, StateDraft, out.State)
	require.True(t, out.Amount.Equal(decimal.NewFromInt(40)), "amount stored absolute")
}

func TestPaymentRequiresJournalForMethod(t *testing.T) {
	f, _ := newFactory(t)

	_, err := f.Payment(context.Background(), PaymentInput{
		CompanyID:  "co-1",
		PartnerID:  "rider-1",
		MethodType: MethodTele,
		Amount:     decimal.NewFromInt(10),
	})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestWalletTransferBalances(t *testing.T) {
	f, _ := newFactory(t)

	doc, err := f.WalletTransfer(context.Background(), "co-1", "rider-1", "driver-1",
		decimal.NewFromInt(60), "ride-3")
	require.NoError(t, err)
	require.Equal(t, KindTransferEntry, doc.Kind)
	require.Equal(t, StatePosted, doc.State)
	require.Len(t, doc.Lines, 2)
	require.True(t, doc.Total().IsZero(), "transfer lines must sum to zero")
	require.Equal(t, "rider-1", doc.PartnerID)
	require.Equal(t, "driver-1", doc.CounterPartnerID)
}

func TestWalletTransferRejectsNonPositiveAmount(t *testing.T) {
	f, _ := newFactory(t)
	_, err := f.WalletTransfer(context.Background(), "co-1", "rider-1", "driver-1",
		decimal.Zero, "ride-3")
	require.Error(t, err)
}

func TestWalletTransferRequiresReceivableAccount(t *testing.T) {
	books := NewMemoryBooks()
	f := NewFactory(books, StaticConfig{Config: testConfig()})

	_, err := f.WalletTransfer(context.Background(), "co-1", "rider-1", "driver-1",
		decimal.NewFromInt(10), "ride-3")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestCouponAndPointsCreditNotes(t *testing.T) {
	f, books := newFactory(t)

	coupon, err := f.CouponCreditNote(context.Background(), "co-1", "rider-1", decimal.NewFromInt(50))
	require.NoError(t, err)
	require.Equal(t, KindCreditNote, coupon.Kind)
	require.Equal(t, StatePosted, coupon.State)
	require.Equal(t, "coupon", coupon.Lines[0].ProductID)
	require.Equal(t, "EXP", coupon.Lines[0].AccountID)

	points, err := f.PointsCreditNote(context.Background(), "co-1", "rider-1", decimal.NewFromInt(25))
	require.NoError(t, err)
	require.Equal(t, "points", points.Lines[0].ProductID)

	require.Len(t, books.DocumentsOfKind(KindCreditNote), 2)
}

func TestValidateWalletAccountsPerContactType(t *testing.T) {
	cfg := testConfig()
	cfg.DriverWalletAccountID = ""
	f := NewFactory(NewMemoryBooks(), StaticConfig{Config: cfg})

	require.NoError(t, f.ValidateWalletAccounts(context.Background(), "co-1", "rider"))
	require.ErrorIs(t, f.ValidateWalletAccounts(context.Background(), "co-1", "driver"), ErrNotConfigured)

	cfg2 := testConfig()
	cfg2.BankAccountID = ""
	f2 := NewFactory(NewMemoryBooks(), StaticConfig{Config: cfg2})
	require.ErrorIs(t, f2.ValidateWalletAccounts(context.Background(), "co-1", "rider"), ErrNotConfigured)
}

func TestReconcileMarksInvoiceAndPayments(t *testing.T) {
	f, books := newFactory(t)

	invoice, err := f.SubscriptionInvoice(context.Background(), "co-1", "driver-1",
		"sub-vip", "VIP subscription", decimal.NewFromInt(300))
	require.NoError(t, err)

	payment, err := f.Payment(context.Background(), PaymentInput{
		CompanyID:  "co-1",
		PartnerID:  "driver-1",
		MethodType: MethodCash,
		Amount:     decimal.NewFromInt(300),
		Post:       true,
	})
	require.NoError(t, err)

	open, err := books.OpenInboundPayments(context.Background(), "co-1", "driver-1")
	require.NoError(t, err)
	require.Len(t, open, 1)

	require.NoError(t, books.Reconcile(context.Background(), invoice.ID, []string{payment.ID}))

	open, err = books.OpenInboundPayments(context.Background(), "co-1", "driver-1")
	require.NoError(t, err)
	require.Empty(t, open)
}
