package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caram-platform/caram-ledger/internal/accounting"
	"github.com/caram-platform/caram-ledger/internal/wallet"
)

// Service sells subscriptions paid from the contact's wallet.
type Service struct {
	subs     Repository
	catalog  Catalog
	wallets  *wallet.Service
	ledger   *wallet.Ledger
	factory  *accounting.Factory
	contacts wallet.ContactDirectory
	logger   *slog.Logger
}

// NewService wires the subscription service.
func NewService(subs Repository, catalog Catalog, wallets *wallet.Service, ledger *wallet.Ledger, factory *accounting.Factory, contacts wallet.ContactDirectory, logger *slog.Logger) *Service {
	return &Service{
		subs:     subs,
		catalog:  catalog,
		wallets:  wallets,
		ledger:   ledger,
		factory:  factory,
		contacts: contacts,
		logger:   logger,
	}
}

// CreateInput describes a subscription purchase.
type CreateInput struct {
	CompanyID  string
	ContactID  string
	PlatformID string
	Type       Type
	Price      decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
}

// CreateResult reports the created subscription and the remaining balance.
type CreateResult struct {
	Subscription Subscription
	InvoiceID    string
	BalanceAfter decimal.Decimal
}

// Create sells a subscription against the wallet. The balance guard runs
// before anything is created; after the invoice posts, the wallet is
// debited with a used entry referencing the subscription and existing
// inbound payments are reconciled best-effort. A reconciliation failure
// surfaces as an error but nothing is rolled back.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	if !in.Price.IsPositive() {
		return CreateResult{}, fmt.Errorf("%w: price must be greater than zero", ErrInvalidType)
	}
	contact, err := s.contacts.Lookup(ctx, in.CompanyID, in.ContactID)
	if err != nil {
		return CreateResult{}, err
	}
	product, err := s.catalog.Product(ctx, in.CompanyID, in.Type)
	if err != nil {
		return CreateResult{}, err
	}

	w, err := s.wallets.Ensure(ctx, in.CompanyID, contact.ID, "")
	if err != nil {
		return CreateResult{}, err
	}
	balance, err := s.ledger.PostedBalance(ctx, w.ID)
	if err != nil {
		return CreateResult{}, err
	}
	if in.Price.GreaterThan(balance) {
		return CreateResult{}, wallet.ErrInsufficientBalance
	}

	sub := Subscription{
		ID:         uuid.NewString(),
		CompanyID:  in.CompanyID,
		ContactID:  contact.ID,
		PlatformID: in.PlatformID,
		Type:       in.Type,
		Price:      in.Price,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return CreateResult{}, err
	}

	invoice, err := s.factory.SubscriptionInvoice(ctx, in.CompanyID, contact.ID, product.ProductID, product.Name, in.Price)
	if err != nil {
		return CreateResult{}, err
	}
	if err := s.subs.SetInvoice(ctx, sub.ID, invoice.ID); err != nil {
		return CreateResult{}, err
	}
	sub.InvoiceID = invoice.ID

	if _, err := s.ledger.Use(ctx, wallet.UseInput{
		WalletID:    w.ID,
		Amount:      in.Price,
		Description: fmt.Sprintf("%s subscription for %s", in.Type, contact.Name),
		Ref:         wallet.SubscriptionRef(sub.ID),
	}); err != nil {
		return CreateResult{}, err
	}

	if err := s.reconcile(ctx, in.CompanyID, contact.ID, invoice.ID); err != nil {
		return CreateResult{}, err
	}

	remaining, err := s.ledger.PostedBalance(ctx, w.ID)
	if err != nil {
		return CreateResult{}, err
	}
	return CreateResult{Subscription: sub, InvoiceID: invoice.ID, BalanceAfter: remaining}, nil
}

// reconcile matches the subscription invoice against the contact's open
// inbound payments.
func (s *Service) reconcile(ctx context.Context, companyID, contactID, invoiceID string) error {
	open, err := s.factory.Books().OpenInboundPayments(ctx, companyID, contactID)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return nil
	}
	ids := make([]string, 0, len(open))
	for _, p := range open {
		ids = append(ids, p.ID)
	}
	return s.factory.Books().Reconcile(ctx, invoiceID, ids)
}
