package otp

import (
	"bytes"
	"context"
	"sync"
)

type memoryStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
}

// NewMemoryStore builds an in-memory challenge store for tests and
// development mode.
func NewMemoryStore() Store {
	return &memoryStore{challenges: make(map[string]Challenge)}
}

func (s *memoryStore) Put(_ context.Context, identity string, ch Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[identity] = ch
	return nil
}

func (s *memoryStore) Get(_ context.Context, identity string) (Challenge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[identity]
	return ch, ok, nil
}

func (s *memoryStore) Remove(_ context.Context, identity string, ch Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.challenges[identity]
	if !ok {
		return nil
	}
	if !stored.IssuedAt.Equal(ch.IssuedAt) || !bytes.Equal(stored.CodeHash, ch.CodeHash) {
		// A newer challenge replaced the one being consumed; leave it.
		return nil
	}
	delete(s.challenges, identity)
	return nil
}
