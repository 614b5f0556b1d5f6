package subscription

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the subscription does not exist.
	ErrNotFound = errors.New("subscription not found")

	// ErrInvalidType rejects unknown subscription types.
	ErrInvalidType = errors.New("invalid subscription type")
)

// Type is the service tier sold on the ride platform.
type Type string

const (
	TypePrivate Type = "private"
	TypePinky   Type = "pinky"
	TypeVIP     Type = "vip"
	TypeVan     Type = "van"
	TypeTaxi    Type = "taxi"
	TypeOther   Type = "other"
)

// ParseType validates a subscription type string.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypePrivate, TypePinky, TypeVIP, TypeVan, TypeTaxi, TypeOther:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Subscription is a wallet-paid platform subscription.
type Subscription struct {
	ID         string
	CompanyID  string
	ContactID  string
	PlatformID string
	Type       Type
	Price      decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
	InvoiceID  string
	CreatedAt  time.Time
}
