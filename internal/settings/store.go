// Package settings provides a concurrency-safe holder for a plugin's
// configuration value.
package settings

import (
	"fmt"
	"sync"

	"github.com/jinzhu/copier"
)

// Store holds a versioned settings value of type T. Reads return deep copies
// and writes replace the whole value, so a reader never observes a partially
// written value and never shares memory with the store.
type Store[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
}

// New creates a store holding a copy of initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{value: mustClone(initial)}
}

// Read returns an independent copy of the current value.
func (s *Store[T]) Read() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return mustClone(s.value)
}

// Snapshot returns an independent copy of the current value together with the
// version it was taken at.
func (s *Store[T]) Snapshot() (T, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return mustClone(s.value), s.version
}

// Write replaces the current value with a copy of v.
func (s *Store[T]) Write(v T) {
	next := mustClone(v)

	s.mu.Lock()
	s.value = next
	s.version++
	s.mu.Unlock()
}

// Update applies fn to a copy of the current value and stores the result.
// The read-modify-write is atomic with respect to other writers.
func (s *Store[T]) Update(fn func(*T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := mustClone(s.value)
	if err := fn(&next); err != nil {
		return err
	}
	s.value = next
	s.version++
	return nil
}

// Version returns the number of writes applied since construction.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Clone returns a deep copy of v.
func Clone[T any](v T) (T, error) {
	var out T
	if err := copier.CopyWithOption(&out, &v, copier.Option{DeepCopy: true}); err != nil {
		return out, fmt.Errorf("copy settings: %w", err)
	}
	return out, nil
}

func mustClone[T any](v T) T {
	out, err := Clone(v)
	if err != nil {
		// copier only fails on mismatched types, which T-to-T cannot produce
		panic(err)
	}
	return out
}
