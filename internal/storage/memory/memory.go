// Package memory keeps the ledger in process memory.
package memory

import (
	"context"
	"sync"

	"carbon/internal/core"
)

type Store struct {
	mu  sync.Mutex
	doc core.Document

	// SaveErr, when set, is returned by Save without touching the document.
	SaveErr error
	saves   int
}

func New() *Store {
	return &Store{doc: core.EmptyDocument()}
}

// NewWithDocument seeds the store.
func NewWithDocument(doc core.Document) *Store {
	return &Store{doc: doc.Normalize().Clone()}
}

// Load returns a copy of the current document.
func (s *Store) Load(_ context.Context) core.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Save replaces the document.
func (s *Store) Save(_ context.Context, doc core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.doc = doc.Normalize().Clone()
	s.saves++
	return nil
}

// Saves reports how many successful saves happened.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
