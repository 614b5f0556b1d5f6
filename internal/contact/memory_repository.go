package contact

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Contact
}

// NewMemoryRepository constructs an in-memory contact repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Contact)}
}

func (r *memoryRepository) Create(_ context.Context, contact Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[contact.ID]; exists {
		return errors.New("contact exists")
	}
	r.storage[contact.ID] = contact
	return nil
}

func (r *memoryRepository) Get(_ context.Context, companyID, id string) (Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.storage[id]
	if !ok || c.CompanyID != companyID {
		return Contact{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepository) FindBySubID(_ context.Context, companyID, subID string) (Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.storage {
		if c.CompanyID == companyID && c.SubID == subID {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

func (r *memoryRepository) FindByMobile(_ context.Context, companyID, mobile string) (Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.storage {
		if c.CompanyID == companyID && c.Mobile == mobile {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

func (r *memoryRepository) FindByEmail(_ context.Context, companyID, email string) (Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.storage {
		if c.CompanyID == companyID && c.Email == email {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

func (r *memoryRepository) Update(_ context.Context, contact Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.storage[contact.ID]
	if !ok || existing.CompanyID != contact.CompanyID {
		return ErrNotFound
	}
	existing.Name = contact.Name
	existing.Mobile = contact.Mobile
	existing.Email = contact.Email
	existing.City = contact.City
	existing.Gender = contact.Gender
	existing.Type = contact.Type
	r.storage[contact.ID] = existing
	return nil
}
