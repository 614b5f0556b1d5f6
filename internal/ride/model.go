package ride

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the ride does not exist.
	ErrNotFound = errors.New("ride not found")

	// ErrAlreadyPaid rejects re-settlement of a paid ride.
	ErrAlreadyPaid = errors.New("ride already paid")

	// ErrInvalidMode rejects unknown payment modes.
	ErrInvalidMode = errors.New("invalid payment mode")
)

// PaymentMode is the closed set of settlement variants. Each mode has its
// own handler in the settlement engine; an unknown mode never dispatches.
type PaymentMode string

const (
	ModeCashOnly   PaymentMode = "cash_only"
	ModeCashExceed PaymentMode = "cash_exceed"
	ModeWalletPaid PaymentMode = "wallet_paid"
	ModeWalletCash PaymentMode = "wallet_cash"
)

// ParseMode validates a payment mode string.
func ParseMode(s string) (PaymentMode, error) {
	switch m := PaymentMode(s); m {
	case ModeCashOnly, ModeCashExceed, ModeWalletPaid, ModeWalletCash:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// State is the settlement lifecycle of a ride.
type State string

const (
	StateDraft State = "draft"
	StatePaid  State = "paid"
)

// Penalty is one platform-charged fine against a ride party.
type Penalty struct {
	Party  string          `json:"party"`
	Amount decimal.Decimal `json:"amount"`
}

// Ride records one settlement keyed by the platform ride id within a
// company. The paid state is terminal.
type Ride struct {
	ID         string
	CompanyID  string
	RideID     string
	RiderID    string
	DriverID   string
	Fare       decimal.Decimal
	WalletPaid decimal.Decimal
	CashPaid   decimal.Decimal
	Commission decimal.Decimal
	Mode       PaymentMode
	State      State
	PaidAt     time.Time
	CreatedAt  time.Time
}
