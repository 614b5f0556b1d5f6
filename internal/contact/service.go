package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caram-platform/caram-ledger/internal/accounting"
	"github.com/caram-platform/caram-ledger/internal/wallet"
)

// Service registers platform riders and drivers, provisions their wallet
// and grants the welcome coupon.
type Service struct {
	contacts Repository
	wallets  *wallet.Service
	ledger   *wallet.Ledger
	coupons  CouponIssuer
	logger   *slog.Logger
}

// CouponIssuer creates the posted credit note backing the welcome coupon.
// Satisfied by the accounting document factory.
type CouponIssuer interface {
	CouponCreditNote(ctx context.Context, companyID, partnerID string, amount decimal.Decimal) (accounting.Document, error)
}

// NewService wires the contact service.
func NewService(contacts Repository, wallets *wallet.Service, ledger *wallet.Ledger, coupons CouponIssuer, logger *slog.Logger) *Service {
	return &Service{
		contacts: contacts,
		wallets:  wallets,
		ledger:   ledger,
		coupons:  coupons,
		logger:   logger,
	}
}

// RegisterInput describes a new platform contact. CouponValue, when
// positive, is granted as a welcome credit on the fresh wallet.
type RegisterInput struct {
	CompanyID   string
	SubID       string
	Name        string
	Mobile      string
	Email       string
	City        string
	Gender      string
	Type        Type
	CouponValue decimal.Decimal
}

// RegisterResult reports the created contact and its wallet.
type RegisterResult struct {
	Contact  Contact
	WalletID string
	Balance  decimal.Decimal
}

// Register creates a contact, its wallet, and the welcome-coupon credit.
// Registration is rejected when the platform id or mobile number is
// already taken within the company.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	if in.SubID != "" {
		if _, err := s.contacts.FindBySubID(ctx, in.CompanyID, in.SubID); err == nil {
			return RegisterResult{}, fmt.Errorf("%w: sub_id %s", ErrDuplicate, in.SubID)
		} else if !errors.Is(err, ErrNotFound) {
			return RegisterResult{}, err
		}
	}
	if in.Mobile != "" {
		if _, err := s.contacts.FindByMobile(ctx, in.CompanyID, in.Mobile); err == nil {
			return RegisterResult{}, fmt.Errorf("%w: mobile %s", ErrDuplicate, in.Mobile)
		} else if !errors.Is(err, ErrNotFound) {
			return RegisterResult{}, err
		}
	}

	c := Contact{
		ID:        uuid.NewString(),
		CompanyID: in.CompanyID,
		SubID:     in.SubID,
		Name:      in.Name,
		Mobile:    in.Mobile,
		Email:     in.Email,
		City:      in.City,
		Gender:    normalizeGender(in.Gender),
		Type:      in.Type,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return RegisterResult{}, err
	}

	w, err := s.wallets.Ensure(ctx, in.CompanyID, c.ID, "")
	if err != nil {
		return RegisterResult{}, err
	}

	balance := decimal.Zero
	if in.CouponValue.IsPositive() {
		note, err := s.coupons.CouponCreditNote(ctx, in.CompanyID, c.ID, in.CouponValue)
		if err != nil {
			return RegisterResult{}, err
		}
		if _, err := s.ledger.Deposit(ctx, wallet.DepositInput{
			WalletID:    w.ID,
			Amount:      in.CouponValue,
			Description: "Welcome Coupon - Service Credit",
			Status:      wallet.StatusPosted,
			PayerID:     c.ID,
			Ref:         wallet.CreditNoteRef(note.ID),
		}); err != nil {
			return RegisterResult{}, err
		}
		balance = in.CouponValue
	}

	return RegisterResult{Contact: c, WalletID: w.ID, Balance: balance}, nil
}

// UpdateInput carries a partial contact update. The target is identified
// by contact id, email or mobile, in that order; empty fields are kept.
type UpdateInput struct {
	CompanyID string
	ContactID string
	ByEmail   string
	ByMobile  string

	Name   string
	Mobile string
	Email  string
	City   string
	Gender string
	Type   string
}

// Update applies a partial update to a contact.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Contact, error) {
	c, err := s.find(ctx, in)
	if err != nil {
		return Contact{}, err
	}
	if in.Mobile != "" && in.Mobile != c.Mobile {
		if _, err := s.contacts.FindByMobile(ctx, in.CompanyID, in.Mobile); err == nil {
			return Contact{}, fmt.Errorf("%w: mobile %s", ErrDuplicate, in.Mobile)
		} else if !errors.Is(err, ErrNotFound) {
			return Contact{}, err
		}
		c.Mobile = in.Mobile
	}
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.Email != "" {
		c.Email = in.Email
	}
	if in.City != "" {
		c.City = in.City
	}
	if in.Gender != "" {
		c.Gender = normalizeGender(in.Gender)
	}
	if in.Type != "" {
		c.Type = Type(in.Type)
	}
	if err := s.contacts.Update(ctx, c); err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (s *Service) find(ctx context.Context, in UpdateInput) (Contact, error) {
	switch {
	case in.ContactID != "":
		return s.contacts.Get(ctx, in.CompanyID, in.ContactID)
	case in.ByEmail != "":
		return s.contacts.FindByEmail(ctx, in.CompanyID, in.ByEmail)
	case in.ByMobile != "":
		return s.contacts.FindByMobile(ctx, in.CompanyID, in.ByMobile)
	default:
		return Contact{}, ErrNotFound
	}
}

// Get fetches a contact by id within the company scope.
func (s *Service) Get(ctx context.Context, companyID, contactID string) (Contact, error) {
	return s.contacts.Get(ctx, companyID, contactID)
}

func normalizeGender(g string) Gender {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	default:
		return GenderOther
	}
}
