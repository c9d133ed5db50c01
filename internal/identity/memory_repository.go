package identity

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu        sync.RWMutex
	companies map[string]Company
}

// NewMemoryRepository builds an in-memory company store, optionally seeded
// with registered companies. Used for tests and development mode.
func NewMemoryRepository(seed ...Company) Repository {
	companies := make(map[string]Company, len(seed))
	for _, c := range seed {
		companies[c.PAN] = c
	}
	return &memoryRepository{companies: companies}
}

func (r *memoryRepository) FindByPAN(_ context.Context, pan string) (Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	company, ok := r.companies[pan]
	if !ok {
		return Company{}, ErrNotFound
	}
	return company, nil
}

func (r *memoryRepository) Upsert(_ context.Context, company Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[company.PAN] = company
	return nil
}
