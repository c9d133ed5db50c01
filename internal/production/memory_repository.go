package production

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu         sync.Mutex
	unverified map[string]Record
	verified   map[string]Record
}

// NewMemoryRepository builds an in-memory record store for tests and
// development mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		unverified: make(map[string]Record),
		verified:   make(map[string]Record),
	}
}

func (r *memoryRepository) InsertUnverified(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.Verified = false
	r.unverified[record.ID] = record
	return nil
}

func (r *memoryRepository) InsertVerified(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.Verified = true
	r.verified[record.ID] = record
	return nil
}

func (r *memoryRepository) ListByPAN(_ context.Context, pan string) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var records []Record
	for _, record := range r.unverified {
		if record.PAN == pan {
			records = append(records, record)
		}
	}
	for _, record := range r.verified {
		if record.PAN == pan {
			records = append(records, record)
		}
	}
	sortNewestFirst(records)
	return records, nil
}

func (r *memoryRepository) ListUnverified(_ context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]Record, 0, len(r.unverified))
	for _, record := range r.unverified {
		records = append(records, record)
	}
	sortNewestFirst(records)
	return records, nil
}

func (r *memoryRepository) TakeUnverified(_ context.Context, id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.unverified[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	delete(r.unverified, id)
	return record, nil
}

func sortNewestFirst(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
