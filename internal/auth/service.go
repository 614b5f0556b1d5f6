package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenPrefix = "caram_"
	prefixLen   = 14
)

// Service issues and verifies bearer API tokens.
type Service struct {
	repo Repository
}

// NewService builds an API key service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Issue mints a raw token for the given user/company pair and stores its
// hashed form. The raw token is only returned here; it cannot be recovered.
func (s *Service) Issue(ctx context.Context, userID, companyID, label string) (string, APIKey, error) {
	raw := tokenPrefix + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", APIKey{}, fmt.Errorf("hash token: %w", err)
	}

	key := APIKey{
		ID:        uuid.NewString(),
		Prefix:    raw[:prefixLen],
		Hash:      hash,
		UserID:    userID,
		CompanyID: companyID,
		Label:     label,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return "", APIKey{}, err
	}
	return raw, key, nil
}

// Verify resolves a raw bearer token to its acting principal.
func (s *Service) Verify(ctx context.Context, raw string) (Principal, error) {
	if len(raw) < prefixLen || !strings.HasPrefix(raw, tokenPrefix) {
		return Principal{}, ErrInvalidToken
	}

	candidates, err := s.repo.FindByPrefix(ctx, raw[:prefixLen])
	if err != nil {
		return Principal{}, err
	}
	for _, key := range candidates {
		if bcrypt.CompareHashAndPassword(key.Hash, []byte(raw)) == nil {
			return Principal{UserID: key.UserID, CompanyID: key.CompanyID, Label: key.Label}, nil
		}
	}
	return Principal{}, ErrInvalidToken
}
