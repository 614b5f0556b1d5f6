package accounting

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Factory builds the three document shapes the wallet engine needs from
// per-company configuration: commission/fine invoices, payments and
// balanced transfer entries, plus coupon and points credit notes.
type Factory struct {
	books  Books
	config ConfigStore
}

// NewFactory wires a factory over the external books and config store.
func NewFactory(books Books, config ConfigStore) *Factory {
	return &Factory{books: books, config: config}
}

// Books exposes the underlying ledger collaborator for read paths.
func (f *Factory) Books() Books {
	return f.books
}

// CommissionInvoice creates and posts an invoice charging a partner for
// ride commission and, when positive, a fine. The commission line is always
// present (zero included); the fine line only when fine > 0.
func (f *Factory) CommissionInvoice(ctx context.Context, companyID, partnerID string, commission, fine decimal.Decimal, ref string) (Document, error) {
	cfg, err := f.config.Company(ctx, companyID)
	if err != nil {
		return Document{}, err
	}
	if cfg.CommissionProductID == "" {
		return Document{}, fmt.Errorf("%w: commission product not set", ErrNotConfigured)
	}

	lines := []Line{{
		ProductID: cfg.CommissionProductID,
		Name:      "Ride Commission",
		Quantity:  1,
		PriceUnit: commission,
	}}
	if fine.IsPositive() {
		if cfg.FineProductID == "" {
			return Document{}, fmt.Errorf("%w: fine product not set", ErrNotConfigured)
		}
		lines = append(lines, Line{
			ProductID: cfg.FineProductID,
			Name:      "Ride Fine",
			Quantity:  1,
			PriceUnit: fine,
		})
	}

	invoice, err := f.books.CreateInvoice(ctx, InvoiceSpec{
		CompanyID: companyID,
		PartnerID: partnerID,
		JournalID: f.salesJournal(cfg),
		Ref:       ref,
		Lines:     lines,
	})
	if err != nil {
		return Document{}, err
	}
	return f.books.Post(ctx, invoice.ID)
}

// PaymentInput describes a payment document request. A negative amount
// produces an outbound payment.
type PaymentInput struct {
	CompanyID     string
	PartnerID     string
	MethodType    string
	Amount        decimal.Decimal
	Memo          string
	TransactionID string
	Bank          string
	AccountNumber string
	ImageURL      string
	Post          bool
}

// Payment creates a payment against the journal configured for the method
// type and optionally posts it.
func (f *Factory) Payment(ctx context.Context, in PaymentInput) (Document, error) {
	cfg, err := f.config.Company(ctx, in.CompanyID)
	if err != nil {
		return Document{}, err
	}
	journal := cfg.PaymentJournals[in.MethodType]
	if journal == "" {
		return Document{}, fmt.Errorf("%w: no journal found for %s", ErrNotConfigured, in.MethodType)
	}

	direction := Inbound
	if in.Amount.IsNegative() {
		direction = Outbound
	}
	payment, err := f.books.CreatePayment(ctx, PaymentSpec{
		CompanyID:     in.CompanyID,
		PartnerID:     in.PartnerID,
		JournalID:     journal,
		Direction:     direction,
		Amount:        in.Amount.Abs(),
		Memo:          in.Memo,
		TransactionID: in.TransactionID,
		Bank:          in.Bank,
		AccountNumber: in.AccountNumber,
		ImageURL:      in.ImageURL,
	})
	if err != nil {
		return Document{}, err
	}
	if !in.Post {
		return payment, nil
	}
	return f.books.Post(ctx, payment.ID)
}

// CouponCreditNote creates and posts the welcome-coupon credit note issued
// at contact registration.
func (f *Factory) CouponCreditNote(ctx context.Context, companyID, partnerID string, amount decimal.Decimal) (Document, error) {
	cfg, err := f.config.Company(ctx, companyID)
	if err != nil {
		return Document{}, err
	}
	if cfg.CouponProductID == "" {
		return Document{}, fmt.Errorf("%w: coupon product not set", ErrNotConfigured)
	}
	return f.creditNote(ctx, cfg, companyID, partnerID, cfg.CouponProductID, "Welcome Coupon - Service Credit", amount)
}

// PointsCreditNote creates and posts a credit note backing a points top-up.
func (f *Factory) PointsCreditNote(ctx context.Context, companyID, partnerID string, amount decimal.Decimal) (Document, error) {
	cfg, err := f.config.Company(ctx, companyID)
	if err != nil {
		return Document{}, err
	}
	if cfg.PointsProductID == "" {
		return Document{}, fmt.Errorf("%w: points product not set", ErrNotConfigured)
	}
	return f.creditNote(ctx, cfg, companyID, partnerID, cfg.PointsProductID, "Loyalty program - points credit", amount)
}

func (f *Factory) creditNote(ctx context.Context, cfg CompanyConfig, companyID, partnerID, productID, name string, amount decimal.Decimal) (Document, error) {
	if cfg.ExpenseAccountID == "" {
		return Document{}, fmt.Errorf("%w: expense account not set", ErrNotConfigured)
	}
	note, err := f.books.CreateCreditNote(ctx, InvoiceSpec{
		CompanyID: companyID,
		PartnerID: partnerID,
		JournalID: f.salesJournal(cfg),
		Lines: []Line{{
			ProductID: productID,
			AccountID: cfg.ExpenseAccountID,
			Name:      name,
			Quantity:  1,
			PriceUnit: amount,
		}},
	})
	if err != nil {
		return Document{}, err
	}
	return f.books.Post(ctx, note.ID)
}

// SubscriptionInvoice creates and posts a one-line sales invoice for a
// subscription against the subscription journal when one is configured.
func (f *Factory) SubscriptionInvoice(ctx context.Context, companyID, partnerID, productID, name string, price decimal.Decimal) (Document, error) {
	cfg, err := f.config.Company(ctx, companyID)
	if err != nil {
		return Document{}, err
	}
	journal := cfg.SubscriptionJournalID
	if journal == "" {
		journal = f.salesJournal(cfg)
	}
	invoice, err := f.books.CreateInvoice(ctx, InvoiceSpec{
		CompanyID: companyID,
		PartnerID: partnerID,
		JournalID: journal,
		Lines: []Line{{
			ProductID: productID,
			Name:      name,
			Quantity:  1,
			PriceUnit: price,
		}},
	})
	if err != nil {
		return Document{}, err
	}
	return f.books.Post(ctx, invoice.ID)
}

// WalletTransfer creates and posts the balanced two-line entry moving
// wallet value from one party to another, against the company general
// journal. No cash or bank settlement is involved.
func (f *Factory) WalletTransfer(ctx context.Context, companyID, fromPartnerID, toPartnerID string, amount decimal.Decimal, ref string) (Document, error) {
	if !amount.IsPositive() {
		return Document{}, fmt.Errorf("transfer amount must be greater than 0")
	}
	cfg, err := f.config.Company(ctx, companyID)
	if err != nil {
		return Document{}, err
	}
	if cfg.GeneralJournalID == "" {
		return Document{}, fmt.Errorf("%w: no general journal to post wallet transfer entries", ErrNotConfigured)
	}
	transfer, err := f.books.CreateTransfer(ctx, TransferSpec{
		CompanyID:     companyID,
		FromPartnerID: fromPartnerID,
		ToPartnerID:   toPartnerID,
		JournalID:     cfg.GeneralJournalID,
		Amount:        amount,
		Ref:           ref,
	})
	if err != nil {
		return Document{}, err
	}
	return f.books.Post(ctx, transfer.ID)
}

// ValidateWalletAccounts checks the company has the cash/bank account and
// the per-contact-type wallet liability account configured before any
// wallet transaction is accepted.
func (f *Factory) ValidateWalletAccounts(ctx context.Context, companyID, contactType string) error {
	cfg, err := f.config.Company(ctx, companyID)
	if err != nil {
		return err
	}
	if cfg.BankAccountID == "" {
		return fmt.Errorf("%w: bank account not set in company settings", ErrNotConfigured)
	}
	switch contactType {
	case "rider":
		if cfg.RiderWalletAccountID == "" {
			return fmt.Errorf("%w: rider wallet account not set in company settings", ErrNotConfigured)
		}
	case "driver":
		if cfg.DriverWalletAccountID == "" {
			return fmt.Errorf("%w: driver wallet account not set in company settings", ErrNotConfigured)
		}
	}
	return nil
}

// salesJournal prefers the configured general journal for customer
// documents; the books fall back to their default sales journal when empty.
func (f *Factory) salesJournal(cfg CompanyConfig) string {
	return cfg.GeneralJournalID
}
