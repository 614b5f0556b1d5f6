package subscription

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Subscription
}

// NewMemoryRepository constructs an in-memory subscription repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Subscription)}
}

func (r *memoryRepository) Create(_ context.Context, sub Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[sub.ID]; exists {
		return errors.New("subscription exists")
	}
	r.storage[sub.ID] = sub
	return nil
}

func (r *memoryRepository) Get(_ context.Context, companyID, id string) (Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.storage[id]
	if !ok || sub.CompanyID != companyID {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

func (r *memoryRepository) SetInvoice(_ context.Context, id, invoiceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	sub.InvoiceID = invoiceID
	r.storage[id] = sub
	return nil
}
