package auth

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu   sync.RWMutex
	keys map[string]APIKey
}

// NewMemoryRepository constructs an in-memory API key store for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{keys: make(map[string]APIKey)}
}

func (r *memoryRepository) Create(_ context.Context, key APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keys[key.ID]; exists {
		return errors.New("api key exists")
	}
	r.keys[key.ID] = key
	return nil
}

func (r *memoryRepository) FindByPrefix(_ context.Context, prefix string) ([]APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []APIKey
	for _, key := range r.keys {
		if key.Prefix == prefix {
			out = append(out, key)
		}
	}
	return out, nil
}
