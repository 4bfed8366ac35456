package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/circuitry/pkg/domain"
)

// Store implements ports.DocumentStore and ports.DocumentSource in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Document
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Document),
	}
}

// NewFromDocuments creates a store pre-filled with docs, keyed by name.
// This improves DX for tests and for static libraries.
func NewFromDocuments(docs map[string]*domain.Document) *Store {
	s := NewStore()
	for k, doc := range docs {
		s.data[k] = doc.Clone()
	}
	return s
}

// Save persists the document in memory.
func (s *Store) Save(ctx context.Context, key string, doc *domain.Document) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := doc.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves the document from memory.
func (s *Store) Load(ctx context.Context, key string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return doc.Clone(), nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}

// Get implements ports.DocumentSource.
func (s *Store) Get(ctx context.Context, name string) (*domain.Document, error) {
	return s.Load(ctx, name)
}

// Names implements ports.DocumentSource.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	return s.List(ctx)
}
