package wallet

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Wallet
}

// NewMemoryRepository constructs an in-memory wallet repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Wallet)}
}

func (r *memoryRepository) Create(_ context.Context, wallet Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[wallet.ID]; exists {
		return errors.New("wallet exists")
	}
	r.storage[wallet.ID] = wallet
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wallet, ok := r.storage[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return wallet, nil
}

func (r *memoryRepository) FindByContact(_ context.Context, companyID, contactID string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, wallet := range r.storage {
		if wallet.CompanyID == companyID && wallet.ContactID == contactID {
			return wallet, nil
		}
	}
	return Wallet{}, ErrNotFound
}

func (r *memoryRepository) SetBalance(_ context.Context, id string, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	wallet.Balance = balance
	r.storage[id] = wallet
	return nil
}

type memoryEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]LedgerEntry
	order   []string
}

// NewMemoryEntryRepository constructs an in-memory entry store for tests.
func NewMemoryEntryRepository() EntryRepository {
	return &memoryEntryRepository{entries: make(map[string]LedgerEntry)}
}

func (r *memoryEntryRepository) Append(_ context.Context, entry LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[entry.ID]; exists {
		return errors.New("entry exists")
	}
	r.entries[entry.ID] = entry
	r.order = append(r.order, entry.ID)
	return nil
}

func (r *memoryEntryRepository) Get(_ context.Context, id string) (LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		return LedgerEntry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (r *memoryEntryRepository) ListByWallet(_ context.Context, walletID string) ([]LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []LedgerEntry
	for _, id := range r.order {
		if e := r.entries[id]; e.WalletID == walletID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryEntryRepository) FindByRef(_ context.Context, ref DocumentRef) (LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if e := r.entries[id]; e.Ref == ref {
			return e, nil
		}
	}
	return LedgerEntry{}, ErrEntryNotFound
}

func (r *memoryEntryRepository) SetStatus(_ context.Context, id string, status EntryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	entry.Status = status
	r.entries[id] = entry
	return nil
}

func (r *memoryEntryRepository) SetRef(_ context.Context, id string, ref DocumentRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	entry.Ref = ref
	r.entries[id] = entry
	return nil
}
