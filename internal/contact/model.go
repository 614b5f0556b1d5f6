package contact

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the contact does not exist in the company.
	ErrNotFound = errors.New("contact not found")

	// ErrDuplicate indicates a contact with the same platform id or mobile
	// already exists in the company.
	ErrDuplicate = errors.New("contact already registered")
)

// Type distinguishes the two wallet-holding roles.
type Type string

const (
	TypeRider  Type = "rider"
	TypeDriver Type = "driver"
)

// Gender is free-form platform data, normalized to lowercase.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Contact is a rider or driver registered from the ride platform. SubID
// is the platform-side identifier; dedupe runs on SubID and Mobile
// within a company.
type Contact struct {
	ID        string
	CompanyID string
	SubID     string
	Name      string
	Mobile    string
	Email     string
	City      string
	Gender    Gender
	Type      Type
	CreatedAt time.Time
}
