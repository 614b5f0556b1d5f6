package auth

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidToken indicates the presented bearer token matches no active API key.
var ErrInvalidToken = errors.New("invalid API token")

// APIKey is a stored credential. Only a bcrypt hash of the raw token is
// kept; the short prefix narrows the lookup before the hash comparison.
type APIKey struct {
	ID        string
	Prefix    string
	Hash      []byte
	UserID    string
	CompanyID string
	Label     string
	CreatedAt time.Time
}

// Repository persists API keys.
type Repository interface {
	Create(ctx context.Context, key APIKey) error
	FindByPrefix(ctx context.Context, prefix string) ([]APIKey, error)
}
