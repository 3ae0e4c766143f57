// Package memory provides an in-process SuspensionStore, suitable for
// single-replica deployments and tests.
package memory

import (
	"context"
	"sync"

	"github.com/cascadehq/cascade/pkg/domain"
)

// Store implements ports.SuspensionStore in memory.
// Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	data map[string]*domain.Suspension
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Suspension),
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, rec *domain.Suspension) error {
	copied := *rec

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.Token] = &copied
	return nil
}

// Load retrieves the record without claiming it.
func (s *Store) Load(ctx context.Context, token string) (*domain.Suspension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[token]
	if !ok {
		return nil, domain.ErrSuspensionNotFound
	}
	copied := *rec
	return &copied, nil
}

// Claim atomically retrieves and deletes the record.
func (s *Store) Claim(ctx context.Context, token string) (*domain.Suspension, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[token]
	if !ok {
		return nil, domain.ErrSuspensionNotFound
	}
	delete(s.data, token)
	copied := *rec
	return &copied, nil
}

// Delete removes the record, if present.
func (s *Store) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, token)
	return nil
}
