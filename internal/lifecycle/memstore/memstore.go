// Package memstore provides the in-memory implementation of lifecycle.Store.
// All engine state lives here; a process restart starts empty and the sets
// repopulate from the next polls.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/herald/internal/lifecycle"
)

// Store holds pending and notified entries in memory.
type Store struct {
	mu       sync.RWMutex
	pending  map[string]lifecycle.PendingEntry  // event ID -> pending entry
	notified map[string]lifecycle.NotifiedEntry // event ID -> notified entry
}

// New initializes an empty in-memory Store.
func New() *Store {
	return &Store{
		pending:  make(map[string]lifecycle.PendingEntry),
		notified: make(map[string]lifecycle.NotifiedEntry),
	}
}

// GetPending retrieves a pending entry by event ID.
func (s *Store) GetPending(_ context.Context, eventID string) (lifecycle.PendingEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.pending[eventID]
	return e, ok, nil
}

// PutPending stores a pending entry, overwriting any previous one.
func (s *Store) PutPending(_ context.Context, e lifecycle.PendingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[e.EventID] = e
	return nil
}

// DeletePending removes a pending entry. Missing IDs are a no-op.
func (s *Store) DeletePending(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, eventID)
	return nil
}

// RangePending calls fn for every pending entry until fn returns false.
func (s *Store) RangePending(_ context.Context, fn func(lifecycle.PendingEntry) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.pending {
		if !fn(e) {
			return nil
		}
	}
	return nil
}

// GetNotified retrieves a notified entry by event ID.
func (s *Store) GetNotified(_ context.Context, eventID string) (lifecycle.NotifiedEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.notified[eventID]
	return e, ok, nil
}

// PutNotified stores a notified entry, overwriting any previous one.
func (s *Store) PutNotified(_ context.Context, e lifecycle.NotifiedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified[e.EventID] = e
	return nil
}

// DeleteNotified removes a notified entry. Missing IDs are a no-op.
func (s *Store) DeleteNotified(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notified, eventID)
	return nil
}

// RangeNotified calls fn for every notified entry until fn returns false.
func (s *Store) RangeNotified(_ context.Context, fn func(lifecycle.NotifiedEntry) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.notified {
		if !fn(e) {
			return nil
		}
	}
	return nil
}

// Counts returns the current pending and notified set sizes.
func (s *Store) Counts(_ context.Context) (pending, notified int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending), len(s.notified), nil
}
