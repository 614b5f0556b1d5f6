package ride

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Ride
}

// NewMemoryRepository constructs an in-memory ride repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Ride)}
}

func (r *memoryRepository) Create(_ context.Context, ride Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[ride.ID]; exists {
		return errors.New("ride exists")
	}
	r.storage[ride.ID] = ride
	return nil
}

func (r *memoryRepository) FindByRideID(_ context.Context, companyID, rideID string) (Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ride := range r.storage {
		if ride.CompanyID == companyID && ride.RideID == rideID {
			return ride, nil
		}
	}
	return Ride{}, ErrNotFound
}

func (r *memoryRepository) MarkPaid(_ context.Context, id string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	ride.State = StatePaid
	ride.PaidAt = paidAt.UTC()
	r.storage[id] = ride
	return nil
}
