// Package cache provides append-only concurrent caches.
package cache

import (
	"sync"
)

// Store is an append-only cache with first-writer-wins insertion.
// Entries are never replaced or removed. It is safe for concurrent use.
type Store[K comparable, V any] struct {
	data map[K]V
	mu   sync.RWMutex
}

// NewStore creates an empty store.
func NewStore[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		data: make(map[K]V),
	}
}

// Get retrieves a value from the store.
// Returns the value and true if found, zero value and false otherwise.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, found := s.data[key]

	return val, found
}

// Insert stores value under key unless the key is already present.
// It returns the retained value and whether this call stored it, so racing
// writers converge on the first one.
func (s *Store[K, V]) Insert(key K, value V) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, found := s.data[key]; found {
		return existing, false
	}

	s.data[key] = value

	return value, true
}

// Len returns the number of entries in the store.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}
