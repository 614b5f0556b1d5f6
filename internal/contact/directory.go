package contact

import (
	"context"
	"errors"

	"github.com/caram-platform/caram-ledger/internal/wallet"
)

// Directory adapts the contact repository to the lookup interface the
// wallet engine consumes.
type Directory struct {
	contacts Repository
}

// NewDirectory builds a wallet-facing contact directory.
func NewDirectory(contacts Repository) *Directory {
	return &Directory{contacts: contacts}
}

// Lookup resolves a contact within a company scope.
func (d *Directory) Lookup(ctx context.Context, companyID, contactID string) (wallet.ContactInfo, error) {
	c, err := d.contacts.Get(ctx, companyID, contactID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return wallet.ContactInfo{}, wallet.ErrContactNotFound
		}
		return wallet.ContactInfo{}, err
	}
	return wallet.ContactInfo{
		ID:     c.ID,
		Name:   c.Name,
		Type:   string(c.Type),
		Mobile: c.Mobile,
	}, nil
}
